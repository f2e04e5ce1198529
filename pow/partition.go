package pow

import (
	"fmt"

	"github.com/MrEthical07/goArgon2/internal"
)

// nonceSpace is the size of the 32-bit nonce space.
const nonceSpace uint64 = 1 << 32

// Assignment is one worker's slice of the nonce space.
//
// RangeEnd is exclusive. The last worker's range ends at 2^32, which wraps
// to RangeEnd == 0.
type Assignment struct {
	WorkerID   int
	RangeStart uint32
	RangeEnd   uint32
	Start      uint32
	Budget     uint32
}

// Width returns the number of nonces in the assignment's range.
func (a Assignment) Width() uint64 {
	end := uint64(a.RangeEnd)
	if end <= uint64(a.RangeStart) {
		end += nonceSpace
	}
	return end - uint64(a.RangeStart)
}

// Contains reports whether nonce lies inside the assignment's range.
func (a Assignment) Contains(nonce uint32) bool {
	return uint64(nonce-a.RangeStart) < a.Width()
}

// Partition splits [0, 2^32) into workers contiguous ranges and gives each
// worker maxAttempts/workers attempts; the remainder is dropped.
//
// With startNonce nil, each worker starts at a crypto-random offset inside
// its range. Otherwise every worker starts at the same offset,
// *startNonce modulo its range width, which makes runs reproducible.
func Partition(workers int, startNonce *uint32, maxAttempts uint32) ([]Assignment, error) {
	if workers <= 0 {
		return nil, ErrInvalidWorkers
	}

	n := uint64(workers)
	spacing := nonceSpace / n
	budget := maxAttempts / uint32(workers)

	out := make([]Assignment, workers)
	for i := 0; i < workers; i++ {
		start := uint64(i) * spacing
		end := start + spacing
		if i == workers-1 {
			end = nonceSpace
		}
		width := end - start

		var offset uint64
		if startNonce != nil {
			offset = uint64(*startNonce) % width
		} else {
			r, err := internal.RandomBelow(width)
			if err != nil {
				return nil, fmt.Errorf("random start nonce: %w", err)
			}
			offset = r
		}

		out[i] = Assignment{
			WorkerID:   i,
			RangeStart: uint32(start),
			RangeEnd:   uint32(end),
			Start:      uint32(start + offset),
			Budget:     budget,
		}
	}

	return out, nil
}
