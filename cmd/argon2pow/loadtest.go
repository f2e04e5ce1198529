package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goArgon2 "github.com/MrEthical07/goArgon2"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type loadtestCommand struct {
	Challenges  int    `long:"challenges" default:"200" description:"Challenges to issue, solve and redeem"`
	Concurrency int    `long:"concurrency" default:"32" description:"Concurrent clients per phase"`
	Difficulty  uint32 `long:"difficulty" default:"4" description:"Challenge difficulty in bits"`
	Memory      uint32 `long:"memory" default:"1024" description:"Challenge Argon2 memory in KiB"`
	RedisAddr   string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address; an in-process miniredis is used when empty"`
	Prefix      string `long:"prefix" default:"pow" description:"Redis key prefix"`

	env *cliEnv
}

type solved struct {
	clientKey string
	id        string
	nonce     uint32
	token     string
}

func (c *loadtestCommand) Execute([]string) error {
	if c.Challenges <= 0 || c.Concurrency <= 0 {
		return fmt.Errorf("challenges and concurrency must be > 0")
	}
	ctx := c.env.ctx
	logger := c.env.log()

	client, cleanup, err := c.redisClient(logger)
	if err != nil {
		return err
	}
	defer cleanup()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("generate clearance key: %w", err)
	}

	cfg := goArgon2.DefaultConfig()
	cfg.Challenge.Enabled = true
	cfg.Challenge.RedisPrefix = c.Prefix
	cfg.Challenge.Difficulty = c.Difficulty
	cfg.Challenge.Memory = c.Memory
	cfg.Clearance.PrivateKey = priv
	cfg.Clearance.PublicKey = pub
	cfg.RateLimit.Enabled = false
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	engine, err := c.env.build(cfg, client)
	if err != nil {
		return err
	}
	defer engine.Close()

	states := make([]solved, c.Challenges)
	for i := range states {
		states[i].clientKey = fmt.Sprintf("client-%d", i)
	}

	issueStats := runPhase(c.Concurrency, len(states), func(i int) error {
		ch, err := engine.IssueChallenge(goArgon2.WithClientKey(ctx, states[i].clientKey))
		if err != nil {
			return err
		}
		states[i].id = ch.ID

		// The engine runs one search at a time; solving is serialized below.
		res, err := engine.SolveChallenge(ctx, ch)
		if err != nil {
			return err
		}
		if err := res.Err(); err != nil {
			return err
		}
		states[i].nonce = res.Nonce
		return nil
	}, &sync.Mutex{})

	redeemStats := runPhase(c.Concurrency, len(states), func(i int) error {
		if states[i].id == "" {
			return fmt.Errorf("challenge %d was not issued", i)
		}
		cl, err := engine.RedeemChallenge(goArgon2.WithClientKey(ctx, states[i].clientKey), states[i].id, states[i].nonce)
		if err != nil {
			return err
		}
		states[i].token = cl.Token
		return nil
	}, nil)

	validateStats := runPhase(c.Concurrency, len(states), func(i int) error {
		_, err := engine.ValidateClearance(goArgon2.WithClientKey(ctx, states[i].clientKey), states[i].token)
		return err
	}, nil)

	fmt.Fprintln(c.env.out, "---- results ----")
	c.printStats("issue+solve", issueStats)
	c.printStats("redeem", redeemStats)
	c.printStats("validate", validateStats)

	snap := engine.MetricsSnapshot()
	logger.Info("metrics",
		zap.Uint64("pow_attempts", snap.Counters[goArgon2.MetricPowAttempts]),
		zap.Uint64("challenges_redeemed", snap.Counters[goArgon2.MetricChallengeRedeemed]),
		zap.Uint64("challenges_rejected", snap.Counters[goArgon2.MetricChallengeRejected]),
	)
	return nil
}

func (c *loadtestCommand) redisClient(logger *zap.Logger) (redis.UniversalClient, func(), error) {
	if c.RedisAddr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{c.RedisAddr}})
		logger.Info("using redis", zap.String("addr", c.RedisAddr))
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	logger.Info("using miniredis", zap.String("addr", mr.Addr()))
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

// runPhase calls op for every index in [0, n) from concurrency goroutines.
// A non-nil serial mutex is held around each call.
func runPhase(concurrency, n int, op func(i int) error, serial *sync.Mutex) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, n)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= n {
					return
				}
				if serial != nil {
					serial.Lock()
				}
				t0 := time.Now()
				err := op(i)
				d := time.Since(t0)
				if serial != nil {
					serial.Unlock()
				}
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func (c *loadtestCommand) printStats(name string, s phaseStats) {
	fmt.Fprintf(c.env.out, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
