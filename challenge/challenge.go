package challenge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goArgon2/internal"
	"github.com/MrEthical07/goArgon2/kdf"
	"github.com/MrEthical07/goArgon2/pow"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrInvalidConfig reports an Issuer configuration that cannot produce
	// solvable challenges.
	ErrInvalidConfig = errors.New("invalid challenge configuration")
	// ErrNotFound is returned for unknown, expired or already redeemed ids.
	ErrNotFound = errors.New("challenge not found")
	// ErrClientMismatch is returned when a challenge is redeemed by a client
	// key other than the one it was issued to.
	ErrClientMismatch = errors.New("challenge issued to a different client")
	// ErrSolutionRejected is returned when the nonce does not meet the
	// challenge difficulty. The challenge is consumed either way.
	ErrSolutionRejected = errors.New("challenge solution rejected")
	// ErrStoreUnavailable wraps Redis failures.
	ErrStoreUnavailable = errors.New("challenge store unavailable")
)

// Challenge is one PoW puzzle. Base and Salt are lowercase hex so the value
// can be handed to clients as JSON unchanged.
type Challenge struct {
	ID         string     `json:"id"`
	ClientKey  string     `json:"client_key,omitempty"`
	Base       string     `json:"base"`
	Salt       string     `json:"salt"`
	Difficulty uint32     `json:"difficulty"`
	Params     kdf.Params `json:"params"`
	IssuedAt   time.Time  `json:"issued_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// Solution is a redeemed challenge together with the verified nonce.
type Solution struct {
	Challenge Challenge
	Nonce     uint32
	Digest    []byte
}

// Config controls challenge shape and lifetime.
type Config struct {
	Prefix     string
	TTL        time.Duration
	Difficulty uint32
	Params     kdf.Params
	BaseLength int
	SaltLength int
}

// Issuer creates challenges in Redis and redeems them exactly once.
type Issuer struct {
	redis     redis.UniversalClient
	config    Config
	newHasher func() pow.Hasher
	now       func() time.Time
}

// NewIssuer validates cfg and returns an Issuer backed by client.
func NewIssuer(client redis.UniversalClient, cfg Config) (*Issuer, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: redis client required", ErrInvalidConfig)
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "pow"
	}
	if cfg.BaseLength == 0 {
		cfg.BaseLength = 16
	}
	if cfg.SaltLength == 0 {
		cfg.SaltLength = 16
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("%w: TTL must be positive", ErrInvalidConfig)
	}
	if cfg.BaseLength < 8 || cfg.SaltLength < 8 {
		return nil, fmt.Errorf("%w: base and salt must be at least 8 bytes", ErrInvalidConfig)
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.Difficulty > 8*cfg.Params.KeyLength {
		return nil, fmt.Errorf("%w: difficulty %d exceeds %d digest bits", ErrInvalidConfig, cfg.Difficulty, 8*cfg.Params.KeyLength)
	}

	return &Issuer{
		redis:     client,
		config:    cfg,
		newHasher: func() pow.Hasher { return kdf.NewPrimitive() },
		now:       time.Now,
	}, nil
}

// Config returns the issuer configuration with defaults applied.
func (i *Issuer) Config() Config {
	return i.config
}

// Issue stores a fresh challenge for clientKey. An empty clientKey produces
// a challenge any caller may redeem.
func (i *Issuer) Issue(ctx context.Context, clientKey string) (Challenge, error) {
	base, err := internal.RandomBytes(i.config.BaseLength)
	if err != nil {
		return Challenge{}, err
	}
	salt, err := internal.RandomBytes(i.config.SaltLength)
	if err != nil {
		return Challenge{}, err
	}

	now := i.now().UTC()
	ch := Challenge{
		ID:         uuid.NewString(),
		ClientKey:  clientKey,
		Base:       pow.BytesToHex(base),
		Salt:       pow.BytesToHex(salt),
		Difficulty: i.config.Difficulty,
		Params:     i.config.Params,
		IssuedAt:   now,
		ExpiresAt:  now.Add(i.config.TTL),
	}

	data, err := json.Marshal(ch)
	if err != nil {
		return Challenge{}, err
	}
	if err := i.redis.Set(ctx, i.key(ch.ID), data, i.config.TTL).Err(); err != nil {
		return Challenge{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return ch, nil
}

// Get returns a pending challenge without consuming it.
func (i *Issuer) Get(ctx context.Context, id string) (Challenge, error) {
	data, err := i.redis.Get(ctx, i.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Challenge{}, ErrNotFound
		}
		return Challenge{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return i.decode(data)
}

// Redeem consumes the challenge and checks nonce against it. The challenge
// is deleted before verification, so a second call for the same id always
// returns ErrNotFound.
func (i *Issuer) Redeem(ctx context.Context, id, clientKey string, nonce uint32) (Solution, error) {
	data, err := i.redis.GetDel(ctx, i.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Solution{}, ErrNotFound
		}
		return Solution{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	ch, err := i.decode(data)
	if err != nil {
		return Solution{}, err
	}
	if !i.now().Before(ch.ExpiresAt) {
		return Solution{}, ErrNotFound
	}
	if ch.ClientKey != "" && ch.ClientKey != clientKey {
		return Solution{}, ErrClientMismatch
	}

	digest, err := Check(i.newHasher(), ch, nonce)
	if err != nil {
		return Solution{}, err
	}

	return Solution{Challenge: ch, Nonce: nonce, Digest: digest}, nil
}

// Check recomputes the digest for nonce and reports ErrSolutionRejected if
// it misses the difficulty.
func Check(h pow.Hasher, ch Challenge, nonce uint32) ([]byte, error) {
	base, err := pow.HexToBytes(ch.Base)
	if err != nil {
		return nil, err
	}
	salt, err := pow.HexToBytes(ch.Salt)
	if err != nil {
		return nil, err
	}

	digest, err := h.Digest(pow.AppendCandidate(nil, base, nonce), salt, ch.Params, kdf.ModeArgon2id)
	if err != nil {
		return nil, err
	}
	if !pow.MeetsDifficulty(digest, ch.Difficulty) {
		return nil, ErrSolutionRejected
	}
	return digest, nil
}

func (i *Issuer) decode(data []byte) (Challenge, error) {
	var ch Challenge
	if err := json.Unmarshal(data, &ch); err != nil {
		return Challenge{}, fmt.Errorf("%w: corrupt record: %v", ErrStoreUnavailable, err)
	}
	return ch, nil
}

func (i *Issuer) key(id string) string {
	return i.config.Prefix + ":c:" + id
}
