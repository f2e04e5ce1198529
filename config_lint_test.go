package goArgon2

import (
	"testing"
	"time"
)

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func TestLint_DefaultConfigNoHighWarnings(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Lint().AsError(LintHigh); err != nil {
		t.Errorf("default config should not fail AsError(LintHigh): %v", err)
	}
	if containsCode(cfg.Lint().Codes(), "hash_memory_low") {
		t.Error("default Hash Memory should not warn")
	}
}

func TestLint_HighSecurityConfigMinimalWarnings(t *testing.T) {
	cfg := HighSecurityConfig()
	codes := cfg.Lint().Codes()

	unwanted := []string{
		"challenge_difficulty_zero",
		"challenge_difficulty_low",
		"challenge_ttl_long",
		"rate_limits_disabled",
		"clearance_ttl_long",
		"clearance_audience_missing",
		"audit_disabled",
	}
	for _, code := range unwanted {
		if containsCode(codes, code) {
			t.Errorf("HighSecurityConfig should not produce warning %q", code)
		}
	}
}

func TestLint_Codes(t *testing.T) {
	tests := []struct {
		code   string
		mutate func(*Config)
	}{
		{"hash_memory_low", func(c *Config) { c.Hash.Memory = 4096 }},
		{"pow_timeout_zero", func(c *Config) { c.Pow.DefaultTimeout = 0 }},
		{"pow_workers_oversubscribed", func(c *Config) { c.Pow.Workers = 1 << 16 }},
		{"challenge_difficulty_zero", func(c *Config) { c.Challenge.Difficulty = 0 }},
		{"challenge_difficulty_low", func(c *Config) { c.Challenge.Difficulty = 3 }},
		{"challenge_ttl_long", func(c *Config) { c.Challenge.TTL = time.Hour }},
		{"rate_limits_disabled", func(c *Config) { c.RateLimit.Enabled = false }},
		{"clearance_hs256", func(c *Config) { c.Clearance.SigningMethod = "hs256" }},
		{"clearance_ttl_long", func(c *Config) { c.Clearance.TTL = 2 * time.Hour }},
	}

	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			cfg := HighSecurityConfig()
			tc.mutate(&cfg)
			if !containsCode(cfg.Lint().Codes(), tc.code) {
				t.Fatalf("expected %s warning", tc.code)
			}
		})
	}
}

func TestLint_SeverityAssignment(t *testing.T) {
	cfg := HighSecurityConfig()
	cfg.RateLimit.Enabled = false
	cfg.Challenge.Difficulty = 0

	for _, w := range cfg.Lint() {
		switch w.Code {
		case "rate_limits_disabled", "challenge_difficulty_zero":
			if w.Severity != LintHigh {
				t.Errorf("%s should be HIGH, got %s", w.Code, w.Severity)
			}
		}
	}
}

func TestLint_AsError(t *testing.T) {
	cfg := HighSecurityConfig()
	if err := cfg.Lint().AsError(LintHigh); err != nil {
		t.Errorf("HighSecurityConfig should not fail AsError(LintHigh): %v", err)
	}

	cfg.Challenge.Difficulty = 0
	if err := cfg.Lint().AsError(LintHigh); err == nil {
		t.Error("expected AsError(LintHigh) to return error for zero difficulty")
	}
}

func TestLint_BySeverity(t *testing.T) {
	cfg := HighSecurityConfig()
	cfg.RateLimit.Enabled = false
	cfg.Clearance.SigningMethod = "hs256"
	ws := cfg.Lint()

	high := ws.BySeverity(LintHigh)
	if len(high) == 0 {
		t.Fatal("expected at least one HIGH warning")
	}
	for _, w := range high {
		if w.Severity < LintHigh {
			t.Errorf("BySeverity(LintHigh) returned warning with severity %s", w.Severity)
		}
	}
	if len(ws.BySeverity(LintInfo)) != len(ws) {
		t.Error("BySeverity(LintInfo) should return every warning")
	}
}
