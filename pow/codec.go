package pow

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

// MaxNonceLen is the longest uvarint encoding of a uint32.
const MaxNonceLen = binary.MaxVarintLen32

// EncodeNonce returns the base-128 varint encoding of n, low group first.
func EncodeNonce(n uint32) []byte {
	return AppendNonce(make([]byte, 0, MaxNonceLen), n)
}

// AppendNonce appends the varint encoding of n to dst.
func AppendNonce(dst []byte, n uint32) []byte {
	return binary.AppendUvarint(dst, uint64(n))
}

// DecodeNonce is the inverse of EncodeNonce. Only canonical encodings are
// accepted.
func DecodeNonce(b []byte) (uint32, error) {
	v, n := binary.Uvarint(b)
	if n <= 0 || n != len(b) || n > MaxNonceLen || v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: nonce varint", ErrInvalidEncoding)
	}
	if binary.PutUvarint(make([]byte, binary.MaxVarintLen64), v) != n {
		return 0, fmt.Errorf("%w: non-canonical nonce varint", ErrInvalidEncoding)
	}
	return uint32(v), nil
}

// AppendCandidate appends base || ':' || EncodeNonce(nonce) to dst.
func AppendCandidate(dst, base []byte, nonce uint32) []byte {
	dst = append(dst, base...)
	dst = append(dst, ':')
	return AppendNonce(dst, nonce)
}

// HexToBytes decodes s, which may carry a 0x prefix.
func HexToBytes(s string) ([]byte, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd hex length", ErrInvalidEncoding)
	}
	out, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return out, nil
}

// BytesToHex returns the lowercase hex encoding of b.
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}
