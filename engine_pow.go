package goArgon2

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/MrEthical07/goArgon2/pow"
)

// ComputePow searches for a nonce such that
// argon2id(base || ':' || uvarint(nonce), salt) has at least
// opts.Difficulty leading zero bits.
//
// Cancelled, timed out and exhausted searches are returned as a PowResult
// with a nil error; use [PowResult.Err] to turn them into errors. An error
// is returned only when the search never starts: undecodable hex
// (ErrInvalidEncoding), invalid cost parameters (ErrInvalidParameters) or
// a search already running under the reject policy (ErrPowBusy).
//
// Cancelling ctx has the same effect as [Engine.CancelPow].
func (e *Engine) ComputePow(ctx context.Context, opts PowOptions) (PowResult, error) {
	if err := e.ready(); err != nil {
		return PowResult{}, err
	}

	req, err := e.powRequest(opts)
	if err != nil {
		return PowResult{}, err
	}

	return e.compute(ctx, req, "")
}

// SolveChallenge runs a search for ch with the engine's worker pool. The
// nonce in a found result can be passed to [Engine.RedeemChallenge].
func (e *Engine) SolveChallenge(ctx context.Context, ch Challenge) (PowResult, error) {
	if err := e.ready(); err != nil {
		return PowResult{}, err
	}

	base, err := pow.HexToBytes(ch.Base)
	if err != nil {
		return PowResult{}, fmt.Errorf("base: %w", err)
	}
	salt, err := pow.HexToBytes(ch.Salt)
	if err != nil {
		return PowResult{}, fmt.Errorf("salt: %w", err)
	}

	timeout := e.config.Pow.DefaultTimeout
	if !ch.ExpiresAt.IsZero() {
		if left := time.Until(ch.ExpiresAt); left < timeout {
			timeout = max(left, 0)
		}
	}

	return e.compute(ctx, pow.Request{
		Base:         base,
		Salt:         salt,
		RequiredBits: ch.Difficulty,
		MaxAttempts:  e.config.Pow.DefaultMaxAttempts,
		Timeout:      timeout,
		Params:       ch.Params,
	}, ch.ID)
}

// CancelPow stops the running search, if any. It returns immediately; the
// cancelled search reports PowCancelled to its caller.
func (e *Engine) CancelPow() {
	if e == nil {
		return
	}
	e.coordinator.Cancel()
}

// PowProgress returns live totals for the running search, the final
// totals of the last search when idle, or zeros before the first search.
func (e *Engine) PowProgress() PowProgress {
	if e == nil {
		return PowProgress{}
	}
	p := e.coordinator.Progress()
	return PowProgress{
		Attempts:        p.Attempts,
		ElapsedMs:       p.ElapsedMs(),
		HashesPerSecond: p.HashesPerSecond,
	}
}

// PowRunning reports whether a search is in flight.
func (e *Engine) PowRunning() bool {
	return e != nil && e.coordinator.Running()
}

func (e *Engine) powRequest(opts PowOptions) (pow.Request, error) {
	base, err := pow.HexToBytes(opts.Base)
	if err != nil {
		return pow.Request{}, fmt.Errorf("base: %w", err)
	}
	salt, err := pow.HexToBytes(opts.Salt)
	if err != nil {
		return pow.Request{}, fmt.Errorf("salt: %w", err)
	}

	cfg := e.config.Pow
	req := pow.Request{
		Base:         base,
		Salt:         salt,
		RequiredBits: opts.Difficulty,
		StartNonce:   opts.StartNonce,
		MaxAttempts:  cfg.DefaultMaxAttempts,
		Timeout:      cfg.DefaultTimeout,
		Params:       cfg.params(),
	}
	if opts.MaxAttempts != 0 {
		req.MaxAttempts = opts.MaxAttempts
	}
	if opts.TimeoutMs != nil {
		req.Timeout = timeoutFromMs(*opts.TimeoutMs)
	}
	if opts.Iterations != 0 {
		req.Params.Time = opts.Iterations
	}
	if opts.Memory != 0 {
		req.Params.Memory = opts.Memory
	}
	if opts.Parallelism != 0 {
		req.Params.Parallelism = opts.Parallelism
	}
	if opts.HashLength != 0 {
		req.Params.KeyLength = opts.HashLength
	}

	return req, nil
}

// timeoutFromMs converts ms to a Duration, saturating at the largest one so
// values such as math.MaxUint64 mean "no practical limit".
func timeoutFromMs(ms uint64) time.Duration {
	if ms > uint64(math.MaxInt64/int64(time.Millisecond)) {
		return math.MaxInt64
	}
	return time.Duration(ms) * time.Millisecond
}

func (e *Engine) compute(ctx context.Context, req pow.Request, challengeID string) (PowResult, error) {
	start := time.Now()
	out, err := e.coordinator.Compute(ctx, req)
	if err != nil {
		if errors.Is(err, ErrPowBusy) {
			e.metricInc(MetricPowBusy)
		}
		e.emitAudit(ctx, auditEventPowRejected, false, challengeID, "", err, nil)
		return PowResult{}, err
	}
	e.observeSince(MetricPowLatency, start)
	e.metricAdd(MetricPowAttempts, out.Attempts)

	res := powResult(out)
	switch out.Status {
	case pow.StatusFound:
		e.metricInc(MetricPowFound)
	case pow.StatusExhausted:
		e.metricInc(MetricPowExhausted)
	case pow.StatusTimedOut:
		e.metricInc(MetricPowTimedOut)
	case pow.StatusCancelled:
		e.metricInc(MetricPowCancelled)
	}

	e.emitAudit(ctx, auditEventForStatus(out.Status), out.Found(), challengeID, out.SearchID, res.Err(), func() map[string]string {
		m := map[string]string{
			"difficulty": strconv.FormatUint(uint64(req.RequiredBits), 10),
			"attempts":   strconv.FormatUint(out.Attempts, 10),
			"elapsed_ms": strconv.FormatFloat(res.ElapsedMs, 'f', 1, 64),
		}
		if out.Found() {
			m["nonce"] = strconv.FormatUint(uint64(out.Nonce), 10)
			m["worker"] = strconv.Itoa(out.WorkerID)
		}
		return m
	})

	return res, nil
}

func powResult(out pow.Outcome) PowResult {
	res := PowResult{
		Status:    out.Status,
		Attempts:  out.Attempts,
		ElapsedMs: float64(out.Elapsed) / float64(time.Millisecond),
	}
	if out.Found() {
		res.Nonce = out.Nonce
		res.Digest = pow.BytesToHex(out.Digest)
		res.WorkerID = out.WorkerID
		res.WorkerAttempts = out.WorkerAttempts
	}
	return res
}
