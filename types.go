package goArgon2

import (
	"io"

	internalaudit "github.com/MrEthical07/goArgon2/internal/audit"
	"github.com/MrEthical07/goArgon2/kdf"
	"github.com/MrEthical07/goArgon2/pow"
	"go.uber.org/zap"
)

// Mode selects the Argon2 variant used by [Engine.Hash].
type Mode = kdf.Mode

const (
	ModeArgon2i  = kdf.ModeArgon2i
	ModeArgon2d  = kdf.ModeArgon2d
	ModeArgon2id = kdf.ModeArgon2id
)

// Encoding names how a password or salt string is turned into bytes.
type Encoding string

const (
	EncodingUTF8   Encoding = "utf8"
	EncodingHex    Encoding = "hex"
	EncodingBase64 Encoding = "base64"
)

// HashOptions describes one [Engine.Hash] call. Zero cost fields take the
// values from [HashConfig]. An empty Salt selects a random salt of
// HashConfig.SaltLength bytes.
type HashOptions struct {
	Password         string
	Salt             string
	Iterations       uint32
	Memory           uint32 // in KiB
	Parallelism      uint32
	HashLength       uint32
	Mode             Mode
	PasswordEncoding Encoding
	SaltEncoding     Encoding
}

// HashResult carries the raw digest as lowercase hex and the PHC encoded
// form accepted by [Engine.Verify].
type HashResult struct {
	RawHash     string `json:"raw_hash"`
	EncodedHash string `json:"encoded_hash"`
}

// PowStatus is the terminal state of a PoW search.
type PowStatus = pow.Status

const (
	PowFound     = pow.StatusFound
	PowExhausted = pow.StatusExhausted
	PowTimedOut  = pow.StatusTimedOut
	PowCancelled = pow.StatusCancelled
)

// PowOptions describes one [Engine.ComputePow] call. Base and Salt are hex
// strings with an optional 0x prefix. Zero numeric fields take the values
// from [PowConfig]; TimeoutMs is a pointer so an explicit zero can be
// expressed.
type PowOptions struct {
	Base        string  `json:"base"`
	Salt        string  `json:"salt"`
	Difficulty  uint32  `json:"difficulty"`
	StartNonce  *uint32 `json:"start_nonce,omitempty"`
	MaxAttempts uint32  `json:"max_attempts,omitempty"`
	TimeoutMs   *uint64 `json:"timeout_ms,omitempty"`
	Iterations  uint32  `json:"iterations,omitempty"`
	Memory      uint32  `json:"memory,omitempty"`
	Parallelism uint32  `json:"parallelism,omitempty"`
	HashLength  uint32  `json:"hash_length,omitempty"`
}

// PowResult is the outcome of one search. Nonce, Digest, WorkerID and
// WorkerAttempts are only meaningful when Status is PowFound.
type PowResult struct {
	Status         PowStatus `json:"-"`
	Nonce          uint32    `json:"nonce"`
	Digest         string    `json:"digest"`
	Attempts       uint64    `json:"attempts"`
	ElapsedMs      float64   `json:"elapsed_ms"`
	WorkerID       int       `json:"worker_id"`
	WorkerAttempts uint32    `json:"worker_attempts"`
}

// Found reports whether the search produced a valid nonce.
func (r PowResult) Found() bool {
	return r.Status == PowFound
}

// Err maps a non-success status to ErrPowCancelled, ErrPowTimedOut or
// ErrPowExhausted. It returns nil for PowFound.
func (r PowResult) Err() error {
	switch r.Status {
	case PowFound:
		return nil
	case PowCancelled:
		return ErrPowCancelled
	case PowTimedOut:
		return ErrPowTimedOut
	default:
		return ErrPowExhausted
	}
}

// PowProgress is a live view of the running search, or the final totals of
// the last one.
type PowProgress struct {
	Attempts        uint64  `json:"attempts"`
	ElapsedMs       float64 `json:"elapsed_ms"`
	HashesPerSecond float64 `json:"hashes_per_second"`
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// ZapSink is an [AuditSink] that logs events through zap.
type ZapSink = internalaudit.ZapSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewZapSink creates a [ZapSink] backed by logger.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return internalaudit.NewZapSink(logger)
}
