package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	goArgon2 "github.com/MrEthical07/goArgon2"
	"github.com/jessevdk/go-flags"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type globalOptions struct {
	Verbose  bool `short:"v" long:"verbose" description:"Log at debug level"`
	JSONLogs bool `long:"json-logs" env:"ARGON2POW_JSON_LOGS" description:"Emit production JSON logs instead of console logs"`
}

// cliEnv is shared by every subcommand.
type cliEnv struct {
	ctx    context.Context
	out    io.Writer
	opts   *globalOptions
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	parser, env := newParser(ctx, os.Stdout)
	defer func() {
		if env.logger != nil {
			_ = env.logger.Sync()
		}
	}()

	if _, err := parser.Parse(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, ferr.Message)
			return
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newParser(ctx context.Context, out io.Writer) (*flags.Parser, *cliEnv) {
	opts := &globalOptions{}
	env := &cliEnv{ctx: ctx, out: out, opts: opts}

	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "argon2pow"

	mustAdd := func(name, short, long string, data any) {
		if _, err := parser.AddCommand(name, short, long, data); err != nil {
			panic(err)
		}
	}
	mustAdd("hash", "Hash a password", "Hash a password with Argon2 and print the raw and PHC encoded digests.", &hashCommand{env: env})
	mustAdd("verify", "Verify a password", "Verify a password against a PHC encoded Argon2 hash. Exits 1 on mismatch.", &verifyCommand{env: env})
	mustAdd("pow", "Search for a proof-of-work nonce", "Search for a nonce whose Argon2id digest of base:nonce has the requested leading zero bits.", &powCommand{env: env})
	mustAdd("loadtest", "Load test the challenge gate", "Issue, solve, redeem and validate challenges against Redis or an in-process miniredis.", &loadtestCommand{env: env})

	return parser, env
}

func (e *cliEnv) log() *zap.Logger {
	if e.logger != nil {
		return e.logger
	}

	var cfg zap.Config
	if e.opts.JSONLogs {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	if e.opts.Verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	e.logger = logger
	return logger
}

func (e *cliEnv) build(cfg goArgon2.Config, rdb redis.UniversalClient) (*goArgon2.Engine, error) {
	b := goArgon2.New().WithConfig(cfg).WithLogger(e.log())
	if rdb != nil {
		b = b.WithRedis(rdb)
	}
	engine, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	return engine, nil
}

func (e *cliEnv) printJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
