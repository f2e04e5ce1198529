package pow

import "errors"

var (
	// ErrInvalidEncoding is returned for malformed hex or nonce encodings.
	ErrInvalidEncoding = errors.New("invalid encoding")
	// ErrBusy is returned when a search is already running and the coordinator rejects overlap.
	ErrBusy = errors.New("pow search already running")
	// ErrWorkerFailure wraps unexpected failures inside a worker's hash call.
	ErrWorkerFailure = errors.New("pow worker failure")
	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("pow worker count must be > 0")
)
