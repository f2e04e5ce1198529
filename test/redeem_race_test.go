//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"sync"
	"testing"

	goArgon2 "github.com/MrEthical07/goArgon2"
)

func TestRedeemRaceSingleWinner(t *testing.T) {
	rdb, cleanup := newMiniredis(t)
	defer cleanup()

	engine := newGateEngine(t, rdb, gateConfig())
	ctx := goArgon2.WithClientKey(context.Background(), "racer")

	ch, err := engine.IssueChallenge(ctx)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	res, err := engine.SolveChallenge(ctx, ch)
	if err != nil || !res.Found() {
		t.Fatalf("solve: %+v %v", res, err)
	}

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	var mu sync.Mutex
	success := 0
	notFound := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := engine.RedeemChallenge(ctx, ch.ID, res.Nonce)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, goArgon2.ErrChallengeNotFound):
				notFound++
			default:
				t.Errorf("unexpected redeem error: %v", err)
			}
		}()
	}

	close(start)
	wg.Wait()

	if success != 1 {
		t.Fatalf("expected exactly one successful redemption, got %d", success)
	}
	if notFound != workers-1 {
		t.Fatalf("expected %d ErrChallengeNotFound, got %d", workers-1, notFound)
	}
}
