package pow

import "math/bits"

// LeadingZeroBits counts zero bits from the most significant bit of
// digest[0] onward. An all-zero digest yields 8*len(digest).
func LeadingZeroBits(digest []byte) uint32 {
	var count uint32
	for _, b := range digest {
		if b == 0 {
			count += 8
			continue
		}
		count += uint32(bits.LeadingZeros8(b))
		break
	}
	return count
}

// MeetsDifficulty reports whether digest has at least required leading zero
// bits. A requirement above 8*len(digest) is never met.
func MeetsDifficulty(digest []byte, required uint32) bool {
	return LeadingZeroBits(digest) >= required
}
