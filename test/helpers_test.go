//go:build integration
// +build integration

package test

import (
	"strings"
	"testing"
	"time"

	goArgon2 "github.com/MrEthical07/goArgon2"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func gateConfig() goArgon2.Config {
	cfg := goArgon2.DefaultConfig()
	cfg.Hash.Time = 1
	cfg.Hash.Memory = 64
	cfg.Pow.Workers = 2
	cfg.Pow.DefaultTimeout = 10 * time.Second
	cfg.Challenge.Enabled = true
	cfg.Challenge.Difficulty = 3
	cfg.Challenge.Memory = 64
	cfg.Clearance.SigningMethod = "hs256"
	cfg.Clearance.PrivateKey = []byte(strings.Repeat("i", 32))
	return cfg
}

func newGateEngine(t *testing.T, rdb redis.UniversalClient, cfg goArgon2.Config) *goArgon2.Engine {
	t.Helper()

	engine, err := goArgon2.New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func newMiniredis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func splitAddrs(s string) []string {
	var addrs []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	return addrs
}
