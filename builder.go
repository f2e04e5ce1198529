package goArgon2

import (
	"errors"

	"github.com/MrEthical07/goArgon2/challenge"
	"github.com/MrEthical07/goArgon2/clearance"
	"github.com/MrEthical07/goArgon2/internal/rate"
	"github.com/MrEthical07/goArgon2/pow"
	"github.com/redis/go-redis/v9"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

// Builder assembles an [Engine]. Configure it during initialization and
// call Build once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	logger *zap.Logger

	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The value is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client used for challenges and issuance rate limits.
// It is required when Challenge.Enabled is set.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the logger used by the engine and its worker pool.
// The default discards everything.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the destination of audit events. Events are only
// produced when Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine. A Builder
// can only be built once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Challenge.Enabled && b.redis == nil {
		return nil, errors.New("Challenge requires redis client")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// -------- WORKER POOL --------
	var throttle pow.Throttle
	if cfg.Pow.MaxHashesPerSecond > 0 {
		throttle = ratelimit.New(cfg.Pow.MaxHashesPerSecond, ratelimit.WithoutSlack)
	}
	coordinator := pow.NewCoordinator(pow.Config{
		Workers:    cfg.Pow.Workers,
		BusyPolicy: cfg.Pow.BusyPolicy,
		Throttle:   throttle,
		Logger:     logger.Named("pow"),
	})

	engine := &Engine{
		config:      cloneConfig(cfg),
		logger:      logger,
		coordinator: coordinator,
	}

	// -------- CHALLENGES --------
	if cfg.Challenge.Enabled {
		issuer, err := challenge.NewIssuer(b.redis, challenge.Config{
			Prefix:     cfg.Challenge.RedisPrefix,
			TTL:        cfg.Challenge.TTL,
			Difficulty: cfg.Challenge.Difficulty,
			Params:     cfg.Challenge.params(),
			BaseLength: cfg.Challenge.BaseLength,
			SaltLength: cfg.Challenge.SaltLength,
		})
		if err != nil {
			return nil, err
		}
		engine.issuer = issuer

		cm, err := clearance.NewManager(clearance.Config{
			TTL:           cfg.Clearance.TTL,
			SigningMethod: clearance.SigningMethod(cfg.Clearance.SigningMethod),
			PrivateKey:    cloneBytes(cfg.Clearance.PrivateKey),
			PublicKey:     cloneBytes(cfg.Clearance.PublicKey),
			Issuer:        cfg.Clearance.Issuer,
			Audience:      cfg.Clearance.Audience,
			Leeway:        cfg.Clearance.Leeway,
			KeyID:         cfg.Clearance.KeyID,
			VerifyKeys:    cfg.Clearance.VerifyKeys,
		})
		if err != nil {
			return nil, err
		}
		engine.clearance = cm

		if cfg.RateLimit.Enabled {
			engine.rateLimiter = rate.New(b.redis, rate.Config{
				Enabled:         true,
				Prefix:          cfg.Challenge.RedisPrefix,
				MaxIssues:       cfg.RateLimit.MaxIssuesPerWindow,
				IssueWindow:     cfg.RateLimit.IssueWindow,
				MaxRejections:   cfg.RateLimit.MaxRejections,
				RejectionWindow: cfg.RateLimit.RejectionWindow,
			})
		}
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink, logger)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true
	return engine, nil
}
