package goArgon2

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goArgon2/challenge"
	"github.com/MrEthical07/goArgon2/clearance"
	"github.com/MrEthical07/goArgon2/internal"
	internalaudit "github.com/MrEthical07/goArgon2/internal/audit"
	"github.com/MrEthical07/goArgon2/internal/rate"
	"github.com/MrEthical07/goArgon2/kdf"
	"github.com/MrEthical07/goArgon2/pow"
	"go.uber.org/zap"
)

// Engine is the caller-facing entry point for hashing and proof-of-work.
//
// Engine methods are safe for concurrent use. At most one PoW search runs
// at a time; see [PowConfig.BusyPolicy]. Build an Engine with [New].
type Engine struct {
	config      Config
	logger      *zap.Logger
	coordinator *pow.Coordinator
	issuer      *challenge.Issuer
	clearance   *clearance.Manager
	rateLimiter *rate.Limiter
	audit       *internalaudit.Dispatcher
	metrics     *Metrics
	closed      atomic.Bool
}

// Close stops the audit dispatcher after draining queued events and cancels
// any running search. Subsequent calls return ErrEngineNotReady.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.coordinator.Cancel()
	if e.audit != nil {
		e.audit.Close()
	}
}

// Config returns a copy of the validated configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// Workers returns the number of goroutines each search uses.
func (e *Engine) Workers() int {
	if e == nil {
		return 0
	}
	return e.coordinator.Workers()
}

// AuditDropped returns the number of audit events discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of all counters and histograms. It is
// empty when metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) ready() error {
	if e == nil || e.closed.Load() {
		return ErrEngineNotReady
	}
	return nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricAdd(id MetricID, n uint64) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Add(id, n)
}

func (e *Engine) observeSince(id MetricID, start time.Time) {
	if e == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

/*
====================================
HASH / VERIFY
====================================
*/

// Hash derives an Argon2 digest of opts.Password. The result carries the
// raw digest as hex and the PHC string for storage.
//
// Invalid cost parameters fail with ErrInvalidParameters, argon2d with
// ErrUnsupportedMode and undecodable inputs with ErrInvalidEncoding.
func (e *Engine) Hash(ctx context.Context, opts HashOptions) (HashResult, error) {
	if err := e.ready(); err != nil {
		return HashResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return HashResult{}, err
	}
	start := time.Now()
	defer e.observeSince(MetricHashLatency, start)

	res, err := e.hash(opts)
	if err != nil {
		e.metricInc(MetricHashFailure)
		return HashResult{}, err
	}
	e.metricInc(MetricHashSuccess)
	return res, nil
}

func (e *Engine) hash(opts HashOptions) (HashResult, error) {
	mode := opts.Mode
	if mode == "" {
		mode = e.config.Hash.Mode
	}
	params := e.config.Hash.params()
	if opts.Iterations != 0 {
		params.Time = opts.Iterations
	}
	if opts.Memory != 0 {
		params.Memory = opts.Memory
	}
	if opts.Parallelism != 0 {
		params.Parallelism = opts.Parallelism
	}
	if opts.HashLength != 0 {
		params.KeyLength = opts.HashLength
	}

	password, err := decodeInput(opts.Password, opts.PasswordEncoding)
	if err != nil {
		return HashResult{}, fmt.Errorf("password: %w", err)
	}

	var salt []byte
	if opts.Salt == "" {
		salt, err = internal.RandomBytes(e.config.Hash.SaltLength)
	} else {
		salt, err = decodeInput(opts.Salt, opts.SaltEncoding)
	}
	if err != nil {
		return HashResult{}, fmt.Errorf("salt: %w", err)
	}

	digest, err := kdf.NewPrimitive().Digest(password, salt, params, mode)
	if err != nil {
		return HashResult{}, err
	}

	return HashResult{
		RawHash:     pow.BytesToHex(digest),
		EncodedHash: kdf.Encode(mode, params, salt, digest),
	}, nil
}

// Verify reports whether password matches encodedHash. The comparison is
// constant time. A malformed hash returns ErrInvalidEncodedHash.
func (e *Engine) Verify(ctx context.Context, password, encodedHash string) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	start := time.Now()
	defer e.observeSince(MetricHashLatency, start)

	ok, err := kdf.Verify([]byte(password), encodedHash)
	switch {
	case err != nil:
		e.metricInc(MetricVerifyFailure)
		return false, err
	case !ok:
		e.metricInc(MetricVerifyMismatch)
	default:
		e.metricInc(MetricVerifySuccess)
	}
	return ok, nil
}

// NeedsRehash reports whether encodedHash was produced with weaker cost
// parameters than the configured Hash defaults.
func (e *Engine) NeedsRehash(encodedHash string) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return kdf.NeedsUpgrade(encodedHash, e.config.Hash.params())
}

func decodeInput(s string, enc Encoding) ([]byte, error) {
	switch enc {
	case "", EncodingUTF8:
		return []byte(s), nil
	case EncodingHex:
		return pow.HexToBytes(s)
	case EncodingBase64:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			b, err = base64.RawStdEncoding.DecodeString(s)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: invalid base64", ErrInvalidEncoding)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: unknown encoding %q", ErrInvalidEncoding, enc)
	}
}
