package pow

import "time"

// Status is the terminal state of one search.
type Status int

const (
	// StatusFound means a worker produced a nonce meeting the difficulty.
	StatusFound Status = iota + 1
	// StatusExhausted means every worker used its attempt budget (or failed) without a match.
	StatusExhausted
	// StatusTimedOut means the global deadline elapsed first.
	StatusTimedOut
	// StatusCancelled means Cancel or the caller's context stopped the search.
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusExhausted:
		return "exhausted"
	case StatusTimedOut:
		return "timed_out"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the result of Coordinator.Compute. Every status carries the
// attempt and elapsed telemetry of the search.
type Outcome struct {
	// SearchID matches the "search" field of the coordinator's log lines.
	SearchID string
	Status   Status
	Nonce    uint32
	Digest   []byte
	// Attempts is the total across all workers.
	Attempts uint64
	// WorkerID and WorkerAttempts describe the winning worker; both are zero
	// unless Status is StatusFound.
	WorkerID       int
	WorkerAttempts uint32
	Elapsed        time.Duration
}

// Found reports whether the search succeeded.
func (o Outcome) Found() bool {
	return o.Status == StatusFound
}
