package internal

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"math/big"
)

// RandomUint32 returns a uniformly distributed uint32 from crypto/rand.
func RandomUint32() (uint32, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// RandomBelow returns a uniform value in [0, n).
func RandomBelow(n uint64) (uint64, error) {
	if n == 0 {
		return 0, errors.New("random bound must be > 0")
	}
	v, err := rand.Int(rand.Reader, new(big.Int).SetUint64(n))
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

// RandomBytes returns n bytes from crypto/rand.
func RandomBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.New("random length must be >= 0")
	}
	out := make([]byte, n)
	if _, err := rand.Read(out); err != nil {
		return nil, err
	}
	return out, nil
}
