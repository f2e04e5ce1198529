package pow

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goArgon2/kdf"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hasher computes one Argon2 digest. Implementations need not be safe for
// concurrent use; the coordinator gives each worker its own instance.
type Hasher interface {
	Digest(password, salt []byte, p kdf.Params, mode kdf.Mode) ([]byte, error)
}

// Throttle paces hash calls across all workers. go.uber.org/ratelimit's
// Limiter satisfies it.
type Throttle interface {
	Take() time.Time
}

// BusyPolicy decides what Compute does while another search is running.
type BusyPolicy int

const (
	// BusyReject fails the new call with ErrBusy.
	BusyReject BusyPolicy = iota
	// BusyCancelPrevious cancels the running search, waits for it to return
	// and then starts the new one.
	BusyCancelPrevious
)

// Config configures a Coordinator.
type Config struct {
	// Workers is the number of concurrent search goroutines. Zero selects
	// runtime.NumCPU().
	Workers    int
	BusyPolicy BusyPolicy
	// NewHasher builds one Hasher per worker. Nil selects kdf.NewPrimitive.
	NewHasher func() Hasher
	Throttle  Throttle
	Logger    *zap.Logger
}

// Request describes one search. Base and Salt are copied when the search
// starts.
type Request struct {
	Base         []byte
	Salt         []byte
	RequiredBits uint32
	// StartNonce pins every worker's offset inside its range; nil randomizes.
	StartNonce  *uint32
	MaxAttempts uint32
	Timeout     time.Duration
	Params      kdf.Params
}

// Coordinator races workers over a partitioned nonce space. At most one
// search runs per Coordinator at a time.
type Coordinator struct {
	workers    int
	busyPolicy BusyPolicy
	newHasher  func() Hasher
	throttle   Throttle
	logger     *zap.Logger

	mu     sync.Mutex
	active *searchState
	last   atomic.Pointer[searchState]
}

// NewCoordinator returns an idle Coordinator.
func NewCoordinator(cfg Config) *Coordinator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	newHasher := cfg.NewHasher
	if newHasher == nil {
		newHasher = func() Hasher { return kdf.NewPrimitive() }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Coordinator{
		workers:    workers,
		busyPolicy: cfg.BusyPolicy,
		newHasher:  newHasher,
		throttle:   cfg.Throttle,
		logger:     logger,
	}
}

// Workers returns the number of workers each search uses.
func (c *Coordinator) Workers() int {
	return c.workers
}

// Compute runs one search and blocks until it reaches a terminal state.
//
// Non-success terminal states are reported through Outcome.Status with a nil
// error. Errors are reserved for requests that never start: invalid hash
// parameters (kdf.ErrInvalidParameters) or ErrBusy under BusyReject.
// Cancelling ctx behaves like Cancel.
func (c *Coordinator) Compute(ctx context.Context, req Request) (Outcome, error) {
	begun := time.Now()
	if err := req.Params.Validate(); err != nil {
		return Outcome{}, err
	}
	req.Base = append([]byte(nil), req.Base...)
	req.Salt = append([]byte(nil), req.Salt...)

	assignments, err := Partition(c.workers, req.StartNonce, req.MaxAttempts)
	if err != nil {
		return Outcome{}, err
	}

	id := uuid.NewString()
	s, err := c.acquire(ctx, id, req.Timeout)
	if err != nil {
		return Outcome{}, err
	}
	if s == nil {
		out := Outcome{SearchID: id, Status: StatusCancelled, Elapsed: time.Since(begun)}
		c.logger.Debug("pow search cancelled before start",
			zap.String("search", id),
			zap.Duration("elapsed", out.Elapsed),
		)
		return out, nil
	}
	defer c.release(s)

	c.logger.Debug("pow search started",
		zap.String("search", s.id),
		zap.Int("workers", len(assignments)),
		zap.Uint32("difficulty", req.RequiredBits),
		zap.Uint32("max_attempts", req.MaxAttempts),
		zap.Duration("timeout", req.Timeout),
	)

	results := make(chan workerResult, len(assignments))
	for _, a := range assignments {
		h := c.newHasher()
		go func(a Assignment) {
			results <- c.runWorker(s, a, &req, h)
		}(a)
	}

	timer := time.NewTimer(time.Until(s.deadline))
	defer timer.Stop()

	var (
		winner      *workerResult
		deadlineHit bool
		failures    int
		finished    int
	)

wait:
	for finished < len(assignments) {
		select {
		case r := <-results:
			finished++
			switch r.reason {
			case stopFound:
				winner = &r
				break wait
			case stopDeadline:
				deadlineHit = true
			case stopFailed:
				failures++
			}
		case <-timer.C:
			deadlineHit = true
			break wait
		case <-s.abort:
			break wait
		case <-ctx.Done():
			s.requestAbort()
			break wait
		}
	}

	// Stop the remaining workers before reporting anything to the caller.
	s.cancelled.Store(true)

	elapsed := time.Since(s.started)
	total := s.totalAttempts()
	s.freeze(total, elapsed)

	out := Outcome{
		SearchID: s.id,
		Attempts: total,
		Elapsed:  elapsed,
	}
	switch {
	case winner != nil:
		out.Status = StatusFound
		out.Nonce = winner.nonce
		out.Digest = winner.digest
		out.WorkerID = winner.workerID
		out.WorkerAttempts = winner.attempts
	case s.aborted.Load():
		out.Status = StatusCancelled
	case deadlineHit:
		out.Status = StatusTimedOut
	default:
		out.Status = StatusExhausted
	}

	c.logger.Debug("pow search finished",
		zap.String("search", s.id),
		zap.Stringer("status", out.Status),
		zap.Uint64("attempts", out.Attempts),
		zap.Duration("elapsed", out.Elapsed),
		zap.Int("worker_failures", failures),
	)

	return out, nil
}

// Cancel stops the running search, if any. It never blocks on workers and
// is a no-op while idle.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	s := c.active
	c.mu.Unlock()

	if s != nil {
		s.requestAbort()
	}
}

// Running reports whether a search is in flight.
func (c *Coordinator) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// Progress returns live totals for the running search, the final totals of
// the last search when idle, or zeros if no search has run.
func (c *Coordinator) Progress() Progress {
	return c.last.Load().progress(time.Now())
}

// acquire claims the run slot. It returns a nil state and nil error when ctx
// ends while waiting for a previous search to stop.
func (c *Coordinator) acquire(ctx context.Context, id string, timeout time.Duration) (*searchState, error) {
	for {
		c.mu.Lock()
		prev := c.active
		if prev == nil {
			s := newSearchState(id, c.workers, time.Now(), timeout)
			c.active = s
			c.last.Store(s)
			c.mu.Unlock()
			return s, nil
		}
		c.mu.Unlock()

		if c.busyPolicy != BusyCancelPrevious {
			return nil, ErrBusy
		}

		prev.requestAbort()
		select {
		case <-prev.done:
		case <-ctx.Done():
			return nil, nil
		}
	}
}

func (c *Coordinator) release(s *searchState) {
	c.mu.Lock()
	if c.active == s {
		c.active = nil
	}
	c.mu.Unlock()
	close(s.done)
}
