package goArgon2

import (
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

// lightConfig keeps every Argon2 call in the sub-millisecond range.
func lightConfig() Config {
	cfg := defaultConfig()
	cfg.Hash.Time = 1
	cfg.Hash.Memory = 64
	cfg.Pow.Workers = 2
	cfg.Pow.DefaultMemory = 64
	cfg.Pow.DefaultTimeout = 10 * time.Second
	cfg.Challenge.Memory = 64
	return cfg
}

func gateConfig() Config {
	cfg := lightConfig()
	cfg.Challenge.Enabled = true
	cfg.Challenge.Difficulty = 4
	cfg.Clearance.SigningMethod = "hs256"
	cfg.Clearance.PrivateKey = []byte(strings.Repeat("s", 32))
	cfg.Clearance.Issuer = "goargon2-test"
	return cfg
}

func buildTestEngine(t *testing.T, cfg Config, sink AuditSink) *Engine {
	t.Helper()

	b := New().WithConfig(cfg).WithAuditSink(sink)
	if cfg.Challenge.Enabled {
		mr, rdb := newTestRedis(t)
		t.Cleanup(func() {
			_ = rdb.Close()
			mr.Close()
		})
		b = b.WithRedis(rdb)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func u32(v uint32) *uint32 { return &v }

func u64(v uint64) *uint64 { return &v }
