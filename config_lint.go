package goArgon2

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// LintSeverity ranks how much a [LintWarning] matters in production.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is a configuration that passes Validate but is probably not
// what a production deployment wants.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of warnings returned by [Config.Lint].
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	codes := make([]string, len(r))
	for i, w := range r {
		codes[i] = w.Code
	}
	return codes
}

// BySeverity returns the warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError folds the warnings at or above min into one error, or returns nil.
func (r LintResult) AsError(min LintSeverity) error {
	ws := r.BySeverity(min)
	if len(ws) == 0 {
		return nil
	}
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message)
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

// Lint reports risky settings. It never fails; call Validate for hard errors.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if c.Hash.Memory < 19456 {
		add("hash_memory_low", LintWarn, "Hash Memory below 19 MiB is weaker than current Argon2id guidance")
	}
	if c.Pow.Workers > runtime.NumCPU() {
		add("pow_workers_oversubscribed", LintInfo, "Pow Workers exceeds the CPU count; extra workers only add contention")
	}
	if c.Pow.DefaultTimeout == 0 {
		add("pow_timeout_zero", LintWarn, "Pow DefaultTimeout of 0 makes every search time out immediately")
	}

	if c.Challenge.Enabled {
		if c.Challenge.Difficulty == 0 {
			add("challenge_difficulty_zero", LintHigh, "Challenge Difficulty 0 grants clearance without work")
		} else if c.Challenge.Difficulty < 8 {
			add("challenge_difficulty_low", LintWarn, "Challenge Difficulty below 8 bits is solved in a handful of hashes")
		}
		if c.Challenge.TTL > 10*time.Minute {
			add("challenge_ttl_long", LintWarn, "Challenge TTL above 10m lets clients stockpile puzzles")
		}
		if !c.RateLimit.Enabled {
			add("rate_limits_disabled", LintHigh, "challenge issuance is not rate limited")
		}
		if c.Clearance.SigningMethod == "hs256" {
			add("clearance_hs256", LintInfo, "HS256 clearance tokens can only be verified by holders of the signing secret")
		}
		if c.Clearance.TTL > time.Hour {
			add("clearance_ttl_long", LintWarn, "Clearance TTL above 1h outlives the work it proves")
		}
		if c.Clearance.Audience == "" {
			add("clearance_audience_missing", LintInfo, "clearance tokens carry no audience claim")
		}
	}

	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "audit events are not emitted")
	}

	return ws
}

// HighSecurityConfig returns defaults tuned for an internet-facing PoW gate:
// challenges enabled with a higher difficulty, short lifetimes, audit and
// metrics on. Clearance keys must still be provided by the caller.
func HighSecurityConfig() Config {
	cfg := defaultConfig()
	cfg.Challenge.Enabled = true
	cfg.Challenge.Difficulty = 16
	cfg.Challenge.TTL = time.Minute
	cfg.Clearance.TTL = 5 * time.Minute
	cfg.Clearance.Audience = "goargon2"
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.MaxIssuesPerWindow = 10
	cfg.RateLimit.MaxRejections = 5
	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}
