package kdf

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minTimeCost    uint32 = 1
	minParallelism uint32 = 1
	maxParallelism uint32 = 255
	minKeyLength   uint32 = 4
	maxKeyLength   uint32 = 1024
	// 4 GiB expressed in KiB.
	maxMemoryKiB uint32 = 4 * 1024 * 1024
)

// Mode selects the Argon2 variant.
type Mode string

const (
	// ModeArgon2i uses data-independent memory access.
	ModeArgon2i Mode = "argon2i"
	// ModeArgon2d uses data-dependent memory access. Not available in this build.
	ModeArgon2d Mode = "argon2d"
	// ModeArgon2id is the hybrid variant and the default everywhere.
	ModeArgon2id Mode = "argon2id"
)

// ParseMode maps a textual mode to a Mode. Empty input selects ModeArgon2id.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeArgon2id:
		return ModeArgon2id, nil
	case ModeArgon2i:
		return ModeArgon2i, nil
	case ModeArgon2d:
		return ModeArgon2d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
	}
}

// Params holds the Argon2 cost parameters.
type Params struct {
	Time        uint32
	Memory      uint32 // KiB
	Parallelism uint32
	KeyLength   uint32
}

// Validate reports whether p is inside the range the primitive accepts.
func (p Params) Validate() error {
	if p.Time < minTimeCost {
		return fmt.Errorf("%w: time must be >= %d", ErrInvalidParameters, minTimeCost)
	}
	if p.Parallelism < minParallelism || p.Parallelism > maxParallelism {
		return fmt.Errorf("%w: parallelism must be in [%d, %d]", ErrInvalidParameters, minParallelism, maxParallelism)
	}
	if p.Memory < 8*p.Parallelism {
		return fmt.Errorf("%w: memory must be >= 8*parallelism KiB", ErrInvalidParameters)
	}
	if p.Memory > maxMemoryKiB {
		return fmt.Errorf("%w: memory must be <= %d KiB", ErrInvalidParameters, maxMemoryKiB)
	}
	if p.KeyLength < minKeyLength || p.KeyLength > maxKeyLength {
		return fmt.Errorf("%w: key length must be in [%d, %d]", ErrInvalidParameters, minKeyLength, maxKeyLength)
	}
	return nil
}

// Primitive computes Argon2 digests. It holds no state and is safe for
// concurrent use.
type Primitive struct{}

// NewPrimitive returns a ready Primitive.
func NewPrimitive() *Primitive {
	return &Primitive{}
}

// Digest derives p.KeyLength bytes from password and salt.
func (h *Primitive) Digest(password, salt []byte, p Params, mode Mode) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	switch mode {
	case ModeArgon2id, "":
		return argon2.IDKey(password, salt, p.Time, p.Memory, uint8(p.Parallelism), p.KeyLength), nil
	case ModeArgon2i:
		return argon2.Key(password, salt, p.Time, p.Memory, uint8(p.Parallelism), p.KeyLength), nil
	case ModeArgon2d:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMode, mode)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, string(mode))
	}
}

// Encode renders digest as a self-describing PHC string.
func Encode(mode Mode, p Params, salt, digest []byte) string {
	if mode == "" {
		mode = ModeArgon2id
	}
	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		mode,
		argon2.Version,
		p.Memory,
		p.Time,
		p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	)
}

// Encoded is a parsed PHC string.
type Encoded struct {
	Mode   Mode
	Params Params
	Salt   []byte
	Hash   []byte
}

// Verify recomputes the digest described by encodedHash and compares it in
// constant time.
func Verify(password []byte, encodedHash string) (bool, error) {
	parsed, err := ParseEncoded(encodedHash)
	if err != nil {
		return false, err
	}

	computed, err := NewPrimitive().Digest(password, parsed.Salt, parsed.Params, parsed.Mode)
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare(computed, parsed.Hash) == 1, nil
}

// NeedsUpgrade reports whether encodedHash was produced with weaker
// parameters than target.
func NeedsUpgrade(encodedHash string, target Params) (bool, error) {
	parsed, err := ParseEncoded(encodedHash)
	if err != nil {
		return false, err
	}

	if target.Memory > parsed.Params.Memory {
		return true, nil
	}
	if target.Time > parsed.Params.Time {
		return true, nil
	}
	if target.Parallelism > parsed.Params.Parallelism {
		return true, nil
	}
	if target.KeyLength != parsed.Params.KeyLength {
		return true, nil
	}

	return false, nil
}

// ParseEncoded parses a PHC string produced by Encode or the reference
// Argon2 implementation.
func ParseEncoded(encodedHash string) (*Encoded, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, fmt.Errorf("%w: invalid PHC format", ErrInvalidEncodedHash)
	}

	mode, err := ParseMode(parts[1])
	if err != nil || parts[1] == "" {
		return nil, fmt.Errorf("%w: unsupported algorithm", ErrInvalidEncodedHash)
	}

	versionPart := parts[2]
	if !strings.HasPrefix(versionPart, "v=") {
		return nil, fmt.Errorf("%w: missing argon2 version", ErrInvalidEncodedHash)
	}
	version, err := strconv.Atoi(strings.TrimPrefix(versionPart, "v="))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid argon2 version", ErrInvalidEncodedHash)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported argon2 version", ErrInvalidEncodedHash)
	}

	params, err := parseParams(parts[3])
	if err != nil {
		return nil, err
	}

	salt, err := decodeB64(parts[4])
	if err != nil || len(salt) == 0 {
		return nil, fmt.Errorf("%w: invalid salt encoding", ErrInvalidEncodedHash)
	}

	hash, err := decodeB64(parts[5])
	if err != nil || len(hash) == 0 {
		return nil, fmt.Errorf("%w: invalid hash encoding", ErrInvalidEncodedHash)
	}
	params.KeyLength = uint32(len(hash))

	return &Encoded{
		Mode:   mode,
		Params: params,
		Salt:   salt,
		Hash:   hash,
	}, nil
}

func decodeB64(s string) ([]byte, error) {
	if strings.HasSuffix(s, "=") {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}

func parseParams(part string) (Params, error) {
	var params Params

	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return params, fmt.Errorf("%w: invalid parameter format", ErrInvalidEncodedHash)
	}

	var memorySet, timeSet, parallelismSet bool
	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return params, fmt.Errorf("%w: invalid parameter entry", ErrInvalidEncodedHash)
		}

		v, err := strconv.ParseUint(kv[1], 10, 32)
		if err != nil {
			return params, fmt.Errorf("%w: invalid %s parameter", ErrInvalidEncodedHash, kv[0])
		}

		switch kv[0] {
		case "m":
			params.Memory = uint32(v)
			memorySet = true
		case "t":
			params.Time = uint32(v)
			timeSet = true
		case "p":
			params.Parallelism = uint32(v)
			parallelismSet = true
		default:
			return params, fmt.Errorf("%w: unsupported parameter", ErrInvalidEncodedHash)
		}
	}

	if !memorySet || !timeSet || !parallelismSet {
		return params, fmt.Errorf("%w: missing parameters", ErrInvalidEncodedHash)
	}

	return params, nil
}
