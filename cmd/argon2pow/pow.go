package main

import (
	"time"

	goArgon2 "github.com/MrEthical07/goArgon2"
	"go.uber.org/zap"
)

type powCommand struct {
	Base        string        `long:"base" required:"true" description:"Base as hex, 0x prefix optional"`
	Salt        string        `long:"salt" required:"true" description:"Salt as hex, 0x prefix optional"`
	Difficulty  uint32        `short:"d" long:"difficulty" default:"8" description:"Required leading zero bits"`
	Workers     int           `short:"w" long:"workers" env:"ARGON2POW_WORKERS" description:"Worker count; 0 uses every CPU"`
	StartNonce  *uint32       `long:"start-nonce" description:"Pin the first nonce of each worker range"`
	MaxAttempts uint32        `long:"max-attempts" default:"10000000" description:"Total attempt budget shared by the workers"`
	Timeout     time.Duration `long:"timeout" default:"60s" description:"Give up after this long"`
	MaxRate     int           `long:"max-rate" description:"Cap on Argon2 evaluations per second; 0 is unlimited"`
	Time        uint32        `long:"time" default:"1" description:"Iterations"`
	Memory      uint32        `long:"memory" default:"4096" description:"Memory in KiB"`
	Parallelism uint32        `long:"parallelism" default:"1" description:"Lanes"`
	Length      uint32        `long:"length" default:"32" description:"Digest length in bytes"`
	Progress    time.Duration `long:"progress" default:"1s" description:"Progress log interval; 0 disables"`

	env *cliEnv
}

type powOutput struct {
	Status string `json:"status"`
	goArgon2.PowResult
}

func (c *powCommand) Execute([]string) error {
	cfg := goArgon2.DefaultConfig()
	cfg.Pow.Workers = c.Workers
	cfg.Pow.MaxHashesPerSecond = c.MaxRate

	engine, err := c.env.build(cfg, nil)
	if err != nil {
		return err
	}
	defer engine.Close()

	timeoutMs := uint64(c.Timeout.Milliseconds())
	opts := goArgon2.PowOptions{
		Base:        c.Base,
		Salt:        c.Salt,
		Difficulty:  c.Difficulty,
		StartNonce:  c.StartNonce,
		MaxAttempts: c.MaxAttempts,
		TimeoutMs:   &timeoutMs,
		Iterations:  c.Time,
		Memory:      c.Memory,
		Parallelism: c.Parallelism,
		HashLength:  c.Length,
	}

	logger := c.env.log()
	logger.Info("searching",
		zap.Uint32("difficulty", c.Difficulty),
		zap.Int("workers", engine.Workers()),
		zap.Uint32("max_attempts", c.MaxAttempts),
	)

	type result struct {
		res goArgon2.PowResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := engine.ComputePow(c.env.ctx, opts)
		done <- result{res: res, err: err}
	}()

	var tick <-chan time.Time
	if c.Progress > 0 {
		ticker := time.NewTicker(c.Progress)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-tick:
			p := engine.PowProgress()
			logger.Info("progress",
				zap.Uint64("attempts", p.Attempts),
				zap.Float64("hashes_per_second", p.HashesPerSecond),
				zap.Duration("elapsed", time.Duration(p.ElapsedMs*float64(time.Millisecond))),
			)
		case r := <-done:
			if r.err != nil {
				return r.err
			}
			if err := c.env.printJSON(powOutput{Status: r.res.Status.String(), PowResult: r.res}); err != nil {
				return err
			}
			return r.res.Err()
		}
	}
}
