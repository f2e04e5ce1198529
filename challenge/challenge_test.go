package challenge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goArgon2/kdf"
	"github.com/MrEthical07/goArgon2/pow"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lightParams() kdf.Params {
	return kdf.Params{Time: 1, Memory: 64, Parallelism: 1, KeyLength: 32}
}

func newTestIssuer(t *testing.T, difficulty uint32) (*miniredis.Miniredis, *Issuer) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	iss, err := NewIssuer(client, Config{
		Prefix:     "test",
		TTL:        time.Minute,
		Difficulty: difficulty,
		Params:     lightParams(),
	})
	require.NoError(t, err)
	return mr, iss
}

// solve brute-forces ch from nonce 0. wantMatch selects the first nonce that
// meets (true) or misses (false) the difficulty.
func solve(t *testing.T, ch Challenge, wantMatch bool) uint32 {
	t.Helper()

	h := kdf.NewPrimitive()
	for nonce := uint32(0); nonce < 1<<16; nonce++ {
		_, err := Check(h, ch, nonce)
		if wantMatch && err == nil {
			return nonce
		}
		if !wantMatch && err == ErrSolutionRejected {
			return nonce
		}
	}
	t.Fatal("no suitable nonce in search window")
	return 0
}

func TestIssueStoresChallengeWithTTL(t *testing.T) {
	mr, iss := newTestIssuer(t, 4)

	ch, err := iss.Issue(context.Background(), "10.0.0.1")
	require.NoError(t, err)

	assert.NotEmpty(t, ch.ID)
	assert.Len(t, ch.Base, 32)
	assert.Len(t, ch.Salt, 32)
	assert.Equal(t, uint32(4), ch.Difficulty)
	assert.Equal(t, lightParams(), ch.Params)
	assert.WithinDuration(t, ch.IssuedAt.Add(time.Minute), ch.ExpiresAt, time.Millisecond)

	assert.True(t, mr.Exists("test:c:"+ch.ID))
	assert.Equal(t, time.Minute, mr.TTL("test:c:"+ch.ID))

	got, err := iss.Get(context.Background(), ch.ID)
	require.NoError(t, err)
	assert.Equal(t, ch.Base, got.Base)
}

func TestRedeemIsSingleUse(t *testing.T) {
	_, iss := newTestIssuer(t, 4)
	ctx := context.Background()

	ch, err := iss.Issue(ctx, "client")
	require.NoError(t, err)
	nonce := solve(t, ch, true)

	sol, err := iss.Redeem(ctx, ch.ID, "client", nonce)
	require.NoError(t, err)
	assert.Equal(t, nonce, sol.Nonce)
	assert.True(t, pow.MeetsDifficulty(sol.Digest, 4))

	_, err = iss.Redeem(ctx, ch.ID, "client", nonce)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedeemConcurrentOnlyOneWins(t *testing.T) {
	_, iss := newTestIssuer(t, 2)
	ctx := context.Background()

	ch, err := iss.Issue(ctx, "")
	require.NoError(t, err)
	nonce := solve(t, ch, true)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := iss.Redeem(ctx, ch.ID, "anyone", nonce); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestRedeemRejectsWrongNonceAndConsumes(t *testing.T) {
	_, iss := newTestIssuer(t, 4)
	ctx := context.Background()

	ch, err := iss.Issue(ctx, "client")
	require.NoError(t, err)
	bad := solve(t, ch, false)

	_, err = iss.Redeem(ctx, ch.ID, "client", bad)
	assert.ErrorIs(t, err, ErrSolutionRejected)

	_, err = iss.Get(ctx, ch.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedeemRejectsOtherClient(t *testing.T) {
	_, iss := newTestIssuer(t, 0)
	ctx := context.Background()

	ch, err := iss.Issue(ctx, "alice")
	require.NoError(t, err)

	_, err = iss.Redeem(ctx, ch.ID, "mallory", 0)
	assert.ErrorIs(t, err, ErrClientMismatch)
}

func TestRedeemExpired(t *testing.T) {
	mr, iss := newTestIssuer(t, 0)
	ctx := context.Background()

	ch, err := iss.Issue(ctx, "")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = iss.Redeem(ctx, ch.ID, "", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedeemChecksExpiryAgainstClock(t *testing.T) {
	_, iss := newTestIssuer(t, 0)
	ctx := context.Background()

	ch, err := iss.Issue(ctx, "")
	require.NoError(t, err)

	iss.now = func() time.Time { return ch.ExpiresAt.Add(time.Second) }
	_, err = iss.Redeem(ctx, ch.ID, "", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreFailureIsWrapped(t *testing.T) {
	mr, iss := newTestIssuer(t, 0)
	mr.Close()

	_, err := iss.Issue(context.Background(), "")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestNewIssuerValidation(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	cases := map[string]Config{
		"zero ttl":   {TTL: 0, Params: lightParams()},
		"short salt": {TTL: time.Minute, Params: lightParams(), SaltLength: 4},
		"bad params": {TTL: time.Minute, Params: kdf.Params{}},
		"unsolvable": {TTL: time.Minute, Params: lightParams(), Difficulty: 257},
	}
	for name, cfg := range cases {
		_, err := NewIssuer(client, cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig, name)
	}

	_, err := NewIssuer(nil, Config{TTL: time.Minute, Params: lightParams()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
