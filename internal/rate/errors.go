package rate

import "errors"

var (
	// ErrRateLimited is returned once a client key spends its window budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis transport and command failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
