package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*miniredis.Miniredis, *Limiter) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, New(client, cfg)
}

func TestCheckIssueEnforcesWindow(t *testing.T) {
	mr, l := newTestLimiter(t, Config{Enabled: true, MaxIssues: 2, IssueWindow: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.CheckIssue(ctx, "10.0.0.1"); err != nil {
			t.Fatalf("issue %d: unexpected error %v", i, err)
		}
	}
	if err := l.CheckIssue(ctx, "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if err := l.CheckIssue(ctx, "10.0.0.2"); err != nil {
		t.Fatalf("other client must not share the window: %v", err)
	}

	if ttl := mr.TTL("pow:ri:10.0.0.1"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected window TTL, got %s", ttl)
	}

	mr.FastForward(time.Minute + time.Second)
	if err := l.CheckIssue(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("expected new window after expiry, got %v", err)
	}
}

func TestRejectionsBlockIssuance(t *testing.T) {
	_, l := newTestLimiter(t, Config{
		Enabled:         true,
		Prefix:          "gate",
		MaxIssues:       100,
		IssueWindow:     time.Minute,
		MaxRejections:   2,
		RejectionWindow: time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.RecordRejection(ctx, "c"); err != nil {
			t.Fatalf("RecordRejection: %v", err)
		}
	}
	if err := l.CheckIssue(ctx, "c"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited after rejections, got %v", err)
	}

	if err := l.Reset(ctx, "c"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := l.CheckIssue(ctx, "c"); err != nil {
		t.Fatalf("expected issuance after reset, got %v", err)
	}
	n, err := l.IssueCount(ctx, "c")
	if err != nil {
		t.Fatalf("IssueCount: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 issuance, got %d", n)
	}
}

func TestDisabledLimiterIsNoop(t *testing.T) {
	_, l := newTestLimiter(t, Config{Enabled: false, MaxIssues: 0})
	for i := 0; i < 5; i++ {
		if err := l.CheckIssue(context.Background(), "c"); err != nil {
			t.Fatalf("disabled limiter returned %v", err)
		}
	}
}

func TestRedisFailureIsWrapped(t *testing.T) {
	mr, l := newTestLimiter(t, Config{Enabled: true, MaxIssues: 1, IssueWindow: time.Minute})
	mr.Close()

	err := l.CheckIssue(context.Background(), "c")
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
