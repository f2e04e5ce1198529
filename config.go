package goArgon2

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goArgon2/kdf"
	"github.com/MrEthical07/goArgon2/pow"
)

// Config is the complete Engine configuration. Start from [DefaultConfig]
// and override the fields you need.
type Config struct {
	Hash      HashConfig
	Pow       PowConfig
	Challenge ChallengeConfig
	Clearance ClearanceConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
HASH CONFIG
====================================
*/

// HashConfig holds the defaults applied by [Engine.Hash] when a request
// leaves a cost parameter at zero.
type HashConfig struct {
	Mode        kdf.Mode
	Time        uint32
	Memory      uint32 // in KiB
	Parallelism uint32
	KeyLength   uint32
	SaltLength  int
}

/*
====================================
POW CONFIG
====================================
*/

// PowBusyPolicy decides what [Engine.ComputePow] does while another search
// is running.
type PowBusyPolicy = pow.BusyPolicy

const (
	// PowBusyReject fails overlapping calls with ErrPowBusy.
	PowBusyReject = pow.BusyReject
	// PowBusyCancelPrevious cancels the running search and starts the new one.
	PowBusyCancelPrevious = pow.BusyCancelPrevious
)

// PowConfig controls the solver and the defaults applied to [PowOptions].
type PowConfig struct {
	// Workers is the number of concurrent search goroutines; 0 means one per CPU.
	Workers    int
	BusyPolicy PowBusyPolicy
	// MaxHashesPerSecond caps the combined hash rate of all workers; 0 disables the cap.
	MaxHashesPerSecond int

	DefaultMaxAttempts uint32
	DefaultTimeout     time.Duration
	DefaultTime        uint32
	DefaultMemory      uint32 // in KiB
	DefaultParallelism uint32
	DefaultHashLength  uint32
}

/*
====================================
CHALLENGE CONFIG
====================================
*/

// ChallengeConfig controls server-side challenge issuing. Enabling it
// requires a Redis client on the Builder.
type ChallengeConfig struct {
	Enabled     bool
	RedisPrefix string
	TTL         time.Duration
	Difficulty  uint32
	Time        uint32
	Memory      uint32 // in KiB
	Parallelism uint32
	HashLength  uint32
	BaseLength  int
	SaltLength  int
}

// ClearanceConfig controls the tokens handed out for redeemed challenges.
type ClearanceConfig struct {
	TTL           time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
	VerifyKeys    map[string][]byte
}

// RateLimitConfig throttles challenge issuance per client key.
type RateLimitConfig struct {
	Enabled            bool
	MaxIssuesPerWindow int
	IssueWindow        time.Duration
	MaxRejections      int
	RejectionWindow    time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig enables in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used by [New].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Hash: HashConfig{
			Mode:        kdf.ModeArgon2id,
			Time:        2,
			Memory:      65536,
			Parallelism: 1,
			KeyLength:   32,
			SaltLength:  16,
		},
		Pow: PowConfig{
			Workers:            0,
			BusyPolicy:         PowBusyReject,
			MaxHashesPerSecond: 0,
			DefaultMaxAttempts: 10_000_000,
			DefaultTimeout:     60 * time.Second,
			DefaultTime:        1,
			DefaultMemory:      4096,
			DefaultParallelism: 1,
			DefaultHashLength:  32,
		},
		Challenge: ChallengeConfig{
			Enabled:     false,
			RedisPrefix: "pow",
			TTL:         2 * time.Minute,
			Difficulty:  12,
			Time:        1,
			Memory:      4096,
			Parallelism: 1,
			HashLength:  32,
			BaseLength:  16,
			SaltLength:  16,
		},
		Clearance: ClearanceConfig{
			TTL:           10 * time.Minute,
			SigningMethod: "ed25519",
		},
		RateLimit: RateLimitConfig{
			Enabled:            true,
			MaxIssuesPerWindow: 30,
			IssueWindow:        time.Minute,
			MaxRejections:      10,
			RejectionWindow:    10 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Clearance.PrivateKey = cloneBytes(cfg.Clearance.PrivateKey)
	out.Clearance.PublicKey = cloneBytes(cfg.Clearance.PublicKey)
	if cfg.Clearance.VerifyKeys != nil {
		out.Clearance.VerifyKeys = make(map[string][]byte, len(cfg.Clearance.VerifyKeys))
		for kid, key := range cfg.Clearance.VerifyKeys {
			out.Clearance.VerifyKeys[kid] = cloneBytes(key)
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (c HashConfig) params() kdf.Params {
	return kdf.Params{Time: c.Time, Memory: c.Memory, Parallelism: c.Parallelism, KeyLength: c.KeyLength}
}

func (c PowConfig) params() kdf.Params {
	return kdf.Params{Time: c.DefaultTime, Memory: c.DefaultMemory, Parallelism: c.DefaultParallelism, KeyLength: c.DefaultHashLength}
}

func (c ChallengeConfig) params() kdf.Params {
	return kdf.Params{Time: c.Time, Memory: c.Memory, Parallelism: c.Parallelism, KeyLength: c.HashLength}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error it finds.
func (c *Config) Validate() error {
	// Hash
	switch c.Hash.Mode {
	case kdf.ModeArgon2id, kdf.ModeArgon2i:
	case kdf.ModeArgon2d:
		return fmt.Errorf("Hash Mode: %w", kdf.ErrUnsupportedMode)
	default:
		return errors.New("Hash Mode must be 'argon2id' or 'argon2i'")
	}
	if err := c.Hash.params().Validate(); err != nil {
		return fmt.Errorf("Hash: %w", err)
	}
	if c.Hash.SaltLength < 8 {
		return errors.New("Hash SaltLength must be >= 8")
	}

	// Pow
	if c.Pow.Workers < 0 {
		return errors.New("Pow Workers must be >= 0")
	}
	if c.Pow.BusyPolicy != PowBusyReject && c.Pow.BusyPolicy != PowBusyCancelPrevious {
		return errors.New("Pow BusyPolicy is invalid")
	}
	if c.Pow.MaxHashesPerSecond < 0 {
		return errors.New("Pow MaxHashesPerSecond must be >= 0")
	}
	if c.Pow.DefaultTimeout < 0 {
		return errors.New("Pow DefaultTimeout must be >= 0")
	}
	if err := c.Pow.params().Validate(); err != nil {
		return fmt.Errorf("Pow defaults: %w", err)
	}

	// Challenge
	if c.Challenge.Enabled {
		if strings.TrimSpace(c.Challenge.RedisPrefix) == "" {
			return errors.New("Challenge RedisPrefix must not be empty")
		}
		if c.Challenge.TTL <= 0 {
			return errors.New("Challenge TTL must be > 0")
		}
		if err := c.Challenge.params().Validate(); err != nil {
			return fmt.Errorf("Challenge: %w", err)
		}
		if c.Challenge.Difficulty > 8*c.Challenge.HashLength {
			return errors.New("Challenge Difficulty exceeds the digest length")
		}
		if c.Challenge.BaseLength < 8 || c.Challenge.SaltLength < 8 {
			return errors.New("Challenge BaseLength and SaltLength must be >= 8")
		}

		// Clearance is only used to answer redeemed challenges.
		if c.Clearance.TTL <= 0 {
			return errors.New("Clearance TTL must be > 0")
		}
		if c.Clearance.Leeway < 0 || c.Clearance.Leeway > 2*time.Minute {
			return errors.New("Clearance Leeway must be between 0 and 2m")
		}
		if c.Clearance.Audience != "" && strings.TrimSpace(c.Clearance.Audience) == "" {
			return errors.New("Clearance Audience must not be blank")
		}
		switch c.Clearance.SigningMethod {
		case "ed25519":
			if len(c.Clearance.PrivateKey) == 0 {
				return errors.New("ed25519 requires Clearance PrivateKey")
			}
			if len(c.Clearance.PublicKey) == 0 && len(c.Clearance.VerifyKeys) == 0 {
				return errors.New("ed25519 requires Clearance PublicKey")
			}
		case "hs256":
			if len(c.Clearance.PrivateKey) < 32 {
				return errors.New("hs256 requires a Clearance PrivateKey of at least 32 bytes")
			}
		default:
			return errors.New("unsupported Clearance signing method")
		}

		if c.RateLimit.Enabled {
			if c.RateLimit.MaxIssuesPerWindow <= 0 || c.RateLimit.IssueWindow <= 0 {
				return errors.New("RateLimit MaxIssuesPerWindow and IssueWindow must be > 0")
			}
			if c.RateLimit.MaxRejections < 0 {
				return errors.New("RateLimit MaxRejections must be >= 0")
			}
			if c.RateLimit.MaxRejections > 0 && c.RateLimit.RejectionWindow <= 0 {
				return errors.New("RateLimit RejectionWindow must be > 0 when MaxRejections is set")
			}
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}
