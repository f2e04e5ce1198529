package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds issuance limiter tuning parameters.
type Config struct {
	Enabled         bool
	Prefix          string
	MaxIssues       int
	IssueWindow     time.Duration
	MaxRejections   int
	RejectionWindow time.Duration
}

// Limiter enforces per-client limits on challenge issuance and failed
// redemptions using Redis fixed-window counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "pow"
	}
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckIssue counts one issuance for clientKey and fails with
// ErrRateLimited once the window budget is spent.
func (l *Limiter) CheckIssue(ctx context.Context, clientKey string) error {
	if l == nil || !l.config.Enabled || clientKey == "" {
		return nil
	}

	if err := l.checkCounter(ctx, l.rejectKey(clientKey), l.config.MaxRejections); err != nil {
		return err
	}

	count, err := l.incrementWithTTL(ctx, l.issueKey(clientKey), l.config.IssueWindow)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxIssues) {
		return ErrRateLimited
	}

	return nil
}

// RecordRejection counts a rejected redemption for clientKey. Clients that
// exceed MaxRejections are refused new challenges until the window ends.
func (l *Limiter) RecordRejection(ctx context.Context, clientKey string) error {
	if l == nil || !l.config.Enabled || clientKey == "" || l.config.MaxRejections <= 0 {
		return nil
	}

	_, err := l.incrementWithTTL(ctx, l.rejectKey(clientKey), l.config.RejectionWindow)
	return err
}

// Reset clears both counters for clientKey.
func (l *Limiter) Reset(ctx context.Context, clientKey string) error {
	if l == nil {
		return nil
	}
	if err := l.redis.Del(ctx, l.issueKey(clientKey), l.rejectKey(clientKey)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// IssueCount returns the issuance counter for clientKey in the current window.
func (l *Limiter) IssueCount(ctx context.Context, clientKey string) (int, error) {
	count, err := l.redis.Get(ctx, l.issueKey(clientKey)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(count), nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string, limit int) error {
	if limit <= 0 {
		return nil
	}

	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count >= int64(limit) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

func (l *Limiter) issueKey(clientKey string) string {
	return l.config.Prefix + ":ri:" + clientKey
}

func (l *Limiter) rejectKey(clientKey string) string {
	return l.config.Prefix + ":rr:" + clientKey
}
