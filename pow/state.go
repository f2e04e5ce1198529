package pow

import (
	"sync"
	"sync/atomic"
	"time"
)

const cacheLineSize = 64

type paddedCounter struct {
	value atomic.Uint64
	_     [cacheLineSize - 8]byte
}

// Progress is a point-in-time view of a search.
type Progress struct {
	Attempts        uint64
	Elapsed         time.Duration
	HashesPerSecond float64
}

// ElapsedMs returns Elapsed in (fractional) milliseconds.
func (p Progress) ElapsedMs() float64 {
	return float64(p.Elapsed) / float64(time.Millisecond)
}

// searchState is shared by the coordinator and all workers of one search.
//
// cancelled and aborted are written by the coordinator and Cancel; each
// attempts slot is written only by its worker.
type searchState struct {
	id        string
	started   time.Time
	deadline  time.Time
	attempts  []paddedCounter
	cancelled atomic.Bool
	aborted   atomic.Bool

	abort     chan struct{}
	abortOnce sync.Once
	done      chan struct{}

	finished      atomic.Bool
	finalAttempts atomic.Uint64
	finalElapsed  atomic.Int64
}

func newSearchState(id string, workers int, started time.Time, timeout time.Duration) *searchState {
	return &searchState{
		id:       id,
		started:  started,
		deadline: started.Add(timeout),
		attempts: make([]paddedCounter, workers),
		abort:    make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// requestAbort marks the search as externally cancelled and wakes the
// coordinator. Safe to call repeatedly.
func (s *searchState) requestAbort() {
	s.aborted.Store(true)
	s.cancelled.Store(true)
	s.abortOnce.Do(func() {
		close(s.abort)
	})
}

func (s *searchState) totalAttempts() uint64 {
	var total uint64
	for i := range s.attempts {
		total += s.attempts[i].value.Load()
	}
	return total
}

// freeze records the final totals so later progress reads match the outcome
// even if a straggling worker finishes one more hash.
func (s *searchState) freeze(attempts uint64, elapsed time.Duration) {
	s.finalAttempts.Store(attempts)
	s.finalElapsed.Store(int64(elapsed))
	s.finished.Store(true)
}

func (s *searchState) progress(now time.Time) Progress {
	if s == nil {
		return Progress{}
	}

	var (
		attempts uint64
		elapsed  time.Duration
	)
	if s.finished.Load() {
		attempts = s.finalAttempts.Load()
		elapsed = time.Duration(s.finalElapsed.Load())
	} else {
		attempts = s.totalAttempts()
		elapsed = now.Sub(s.started)
	}

	return Progress{
		Attempts:        attempts,
		Elapsed:         elapsed,
		HashesPerSecond: hashRate(attempts, elapsed),
	}
}

func hashRate(attempts uint64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(attempts) / elapsed.Seconds()
}
