package pow

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goArgon2/kdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHasher hashes with sha256 so coordinator tests run fast and stay
// deterministic.
type fakeHasher struct {
	calls   atomic.Int64
	delay   time.Duration
	err     error
	release <-chan struct{}
}

func (f *fakeHasher) Digest(password, salt []byte, _ kdf.Params, _ kdf.Mode) ([]byte, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	sum := sha256.Sum256(append(append([]byte(nil), password...), salt...))
	return sum[:], nil
}

type hasherPool struct {
	mu      sync.Mutex
	hashers []*fakeHasher
	make    func() *fakeHasher
}

func (p *hasherPool) factory() func() Hasher {
	return func() Hasher {
		h := p.make()
		p.mu.Lock()
		p.hashers = append(p.hashers, h)
		p.mu.Unlock()
		return h
	}
}

func (p *hasherPool) calls() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int64, len(p.hashers))
	for i, h := range p.hashers {
		out[i] = h.calls.Load()
	}
	return out
}

func lightParams() kdf.Params {
	return kdf.Params{Time: 1, Memory: 4096, Parallelism: 1, KeyLength: 32}
}

func helloRequest(difficulty uint32) Request {
	base, _ := HexToBytes("48656c6c6f")
	return Request{
		Base:         base,
		Salt:         bytes.Repeat([]byte{0xaa}, 32),
		RequiredBits: difficulty,
		MaxAttempts:  10_000_000,
		Timeout:      60 * time.Second,
		Params:       lightParams(),
	}
}

func TestComputeFindsValidNonceWithArgon2(t *testing.T) {
	c := NewCoordinator(Config{Workers: 4})

	out, err := c.Compute(context.Background(), helloRequest(8))
	require.NoError(t, err)
	require.Equal(t, StatusFound, out.Status)
	require.Len(t, out.Digest, 32)
	assert.Equal(t, byte(0x00), out.Digest[0])
	assert.GreaterOrEqual(t, out.Attempts, uint64(out.WorkerAttempts))

	req := helloRequest(8)
	digest, err := kdf.NewPrimitive().Digest(AppendCandidate(nil, req.Base, out.Nonce), req.Salt, req.Params, kdf.ModeArgon2id)
	require.NoError(t, err)
	assert.Equal(t, out.Digest, digest, "reported digest must match a recomputation")
	assert.False(t, c.Running())
}

func TestComputeExhaustedWithTinyBudget(t *testing.T) {
	c := NewCoordinator(Config{Workers: 4})

	req := helloRequest(64)
	req.MaxAttempts = 1
	out, err := c.Compute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusExhausted, out.Status)
	assert.LessOrEqual(t, out.Attempts, uint64(4))
}

func TestComputeExhaustedSingleWorkerSpendsBudget(t *testing.T) {
	pool := &hasherPool{make: func() *fakeHasher { return &fakeHasher{} }}
	c := NewCoordinator(Config{Workers: 1, NewHasher: pool.factory()})

	req := helloRequest(256)
	req.MaxAttempts = 5
	out, err := c.Compute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusExhausted, out.Status)
	assert.Equal(t, uint64(5), out.Attempts)
	assert.Equal(t, []int64{5}, pool.calls())
}

func TestComputeZeroTimeoutReturnsPromptly(t *testing.T) {
	c := NewCoordinator(Config{Workers: 4})

	req := helloRequest(64)
	req.Timeout = 0

	started := time.Now()
	out, err := c.Compute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusTimedOut, out.Status)
	assert.Less(t, time.Since(started), 2*time.Second)
}

func TestCancelBeforeComputeIsNoop(t *testing.T) {
	c := NewCoordinator(Config{Workers: 2})
	c.Cancel()

	out, err := c.Compute(context.Background(), helloRequest(0))
	require.NoError(t, err)
	assert.Equal(t, StatusFound, out.Status)
}

func TestComputeZeroDifficultyFirstCandidateWins(t *testing.T) {
	c := NewCoordinator(Config{Workers: 4})

	out, err := c.Compute(context.Background(), helloRequest(0))
	require.NoError(t, err)
	require.Equal(t, StatusFound, out.Status)
	assert.Equal(t, uint32(1), out.WorkerAttempts)
	assert.GreaterOrEqual(t, out.Attempts, uint64(1))
}

func TestComputePinnedStartNonce(t *testing.T) {
	c := NewCoordinator(Config{Workers: 1})

	start := uint32(4242)
	req := helloRequest(0)
	req.StartNonce = &start
	out, err := c.Compute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, start, out.Nonce)
}

func TestComputeRejectsInvalidParameters(t *testing.T) {
	c := NewCoordinator(Config{Workers: 2})

	req := helloRequest(4)
	req.Params.Parallelism = 0
	_, err := c.Compute(context.Background(), req)
	assert.ErrorIs(t, err, kdf.ErrInvalidParameters)
	assert.False(t, c.Running())
}

func TestComputeAllWorkersFailingIsExhausted(t *testing.T) {
	boom := errors.New("scratch allocation failed")
	pool := &hasherPool{make: func() *fakeHasher { return &fakeHasher{err: boom} }}
	c := NewCoordinator(Config{Workers: 3, NewHasher: pool.factory()})

	out, err := c.Compute(context.Background(), helloRequest(4))
	require.NoError(t, err)
	assert.Equal(t, StatusExhausted, out.Status)
	assert.Equal(t, uint64(0), out.Attempts)
}

type panicHasher struct{}

func (panicHasher) Digest([]byte, []byte, kdf.Params, kdf.Mode) ([]byte, error) {
	panic("corrupted scratch memory")
}

func TestComputeRecoversWorkerPanic(t *testing.T) {
	c := NewCoordinator(Config{Workers: 2, NewHasher: func() Hasher { return panicHasher{} }})

	out, err := c.Compute(context.Background(), helloRequest(4))
	require.NoError(t, err)
	assert.Equal(t, StatusExhausted, out.Status)
}

func TestCancelStopsSearchWithinOneHash(t *testing.T) {
	pool := &hasherPool{make: func() *fakeHasher { return &fakeHasher{delay: 5 * time.Millisecond} }}
	c := NewCoordinator(Config{Workers: 4, NewHasher: pool.factory()})

	done := make(chan Outcome, 1)
	go func() {
		out, err := c.Compute(context.Background(), helloRequest(256))
		assert.NoError(t, err)
		done <- out
	}()

	require.Eventually(t, func() bool { return c.Progress().Attempts >= 8 }, 5*time.Second, time.Millisecond)

	c.Cancel()
	atCancel := pool.calls()

	var out Outcome
	select {
	case out = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Compute did not return after Cancel")
	}
	assert.Equal(t, StatusCancelled, out.Status)

	time.Sleep(50 * time.Millisecond)
	after := pool.calls()
	for i := range atCancel {
		assert.LessOrEqual(t, after[i]-atCancel[i], int64(1), "worker %d kept hashing after cancel", i)
	}
}

func TestContextCancellationCancelsSearch(t *testing.T) {
	pool := &hasherPool{make: func() *fakeHasher { return &fakeHasher{delay: time.Millisecond} }}
	c := NewCoordinator(Config{Workers: 2, NewHasher: pool.factory()})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	out, err := c.Compute(ctx, helloRequest(256))
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, out.Status)
}

func TestComputeTimesOutOnDeadline(t *testing.T) {
	pool := &hasherPool{make: func() *fakeHasher { return &fakeHasher{delay: time.Millisecond} }}
	c := NewCoordinator(Config{Workers: 2, NewHasher: pool.factory()})

	req := helloRequest(256)
	req.Timeout = 40 * time.Millisecond
	out, err := c.Compute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusTimedOut, out.Status)
	assert.Greater(t, out.Attempts, uint64(0))
	assert.GreaterOrEqual(t, out.Elapsed, 40*time.Millisecond)
}

func TestBusyRejectsOverlappingSearch(t *testing.T) {
	release := make(chan struct{})
	pool := &hasherPool{make: func() *fakeHasher { return &fakeHasher{release: release} }}
	c := NewCoordinator(Config{Workers: 2, NewHasher: pool.factory()})

	done := make(chan Outcome, 1)
	go func() {
		out, _ := c.Compute(context.Background(), helloRequest(256))
		done <- out
	}()
	require.Eventually(t, c.Running, time.Second, time.Millisecond)

	_, err := c.Compute(context.Background(), helloRequest(0))
	assert.ErrorIs(t, err, ErrBusy)

	c.Cancel()
	close(release)
	out := <-done
	assert.Equal(t, StatusCancelled, out.Status)
}

func TestBusyCancelPreviousReplacesSearch(t *testing.T) {
	pool := &hasherPool{make: func() *fakeHasher { return &fakeHasher{delay: time.Millisecond} }}
	c := NewCoordinator(Config{Workers: 2, BusyPolicy: BusyCancelPrevious, NewHasher: pool.factory()})

	first := make(chan Outcome, 1)
	go func() {
		out, _ := c.Compute(context.Background(), helloRequest(256))
		first <- out
	}()
	require.Eventually(t, c.Running, time.Second, time.Millisecond)

	second, err := c.Compute(context.Background(), helloRequest(0))
	require.NoError(t, err)
	assert.Equal(t, StatusFound, second.Status)
	assert.Equal(t, StatusCancelled, (<-first).Status)
}

func TestBusyCancelPreviousContextEndsWhileWaiting(t *testing.T) {
	c := NewCoordinator(Config{Workers: 1, BusyPolicy: BusyCancelPrevious})

	// A previous search that never acknowledges the abort.
	stuck := newSearchState("stuck", 1, time.Now(), time.Minute)
	c.mu.Lock()
	c.active = stuck
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out, err := c.Compute(ctx, helloRequest(0))
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, out.Status)
	assert.NotEmpty(t, out.SearchID)
	assert.NotEqual(t, "stuck", out.SearchID)
	assert.GreaterOrEqual(t, out.Elapsed, 20*time.Millisecond)
	assert.True(t, stuck.aborted.Load(), "previous search must be asked to stop")
}

func TestProgressIdleAndFinal(t *testing.T) {
	pool := &hasherPool{make: func() *fakeHasher { return &fakeHasher{} }}
	c := NewCoordinator(Config{Workers: 2, NewHasher: pool.factory()})

	assert.Equal(t, Progress{}, c.Progress())

	req := helloRequest(256)
	req.MaxAttempts = 20
	out, err := c.Compute(context.Background(), req)
	require.NoError(t, err)

	p := c.Progress()
	assert.Equal(t, out.Attempts, p.Attempts)
	assert.Equal(t, out.Elapsed, p.Elapsed)

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, p, c.Progress(), "idle progress must stay frozen")
}

func TestProgressWhileRunning(t *testing.T) {
	pool := &hasherPool{make: func() *fakeHasher { return &fakeHasher{delay: 2 * time.Millisecond} }}
	c := NewCoordinator(Config{Workers: 2, NewHasher: pool.factory()})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Compute(context.Background(), helloRequest(256))
	}()

	require.Eventually(t, func() bool {
		p := c.Progress()
		return p.Attempts > 0 && p.HashesPerSecond > 0 && p.Elapsed > 0
	}, 5*time.Second, time.Millisecond)

	c.Cancel()
	<-done
}

type countingThrottle struct {
	n atomic.Int64
}

func (t *countingThrottle) Take() time.Time {
	t.n.Add(1)
	return time.Now()
}

func TestThrottleIsConsultedPerHash(t *testing.T) {
	th := &countingThrottle{}
	pool := &hasherPool{make: func() *fakeHasher { return &fakeHasher{} }}
	c := NewCoordinator(Config{Workers: 1, NewHasher: pool.factory(), Throttle: th})

	req := helloRequest(256)
	req.MaxAttempts = 3
	out, err := c.Compute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusExhausted, out.Status)
	assert.Equal(t, int64(3), th.n.Load())
}

type sleepyThrottle struct {
	d time.Duration
}

func (t sleepyThrottle) Take() time.Time {
	time.Sleep(t.d)
	return time.Now()
}

func TestWorkerRechecksDeadlineAfterThrottle(t *testing.T) {
	c := NewCoordinator(Config{Workers: 1, Throttle: sleepyThrottle{d: 40 * time.Millisecond}})
	s := newSearchState("throttled", 1, time.Now(), 10*time.Millisecond)
	h := &fakeHasher{}
	req := helloRequest(256)

	res := c.runWorker(s, Assignment{WorkerID: 0, Budget: 100}, &req, h)
	assert.Equal(t, stopDeadline, res.reason)
	assert.Zero(t, res.attempts)
	assert.Zero(t, h.calls.Load(), "no hash may start after the deadline")
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "found", StatusFound.String())
	assert.Equal(t, "exhausted", StatusExhausted.String())
	assert.Equal(t, "timed_out", StatusTimedOut.String())
	assert.Equal(t, "cancelled", StatusCancelled.String())
	assert.Equal(t, "unknown", Status(0).String())
}
