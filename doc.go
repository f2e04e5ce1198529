// Package goArgon2 provides Argon2 password hashing and a concurrent
// proof-of-work (PoW) solver built on it.
//
// A PoW search looks for a 32-bit nonce such that
//
//	argon2id(base || ':' || uvarint(nonce), salt)
//
// has at least Difficulty leading zero bits. The nonce space is split into
// one contiguous range per worker goroutine; the first worker to find a
// match wins and the rest are stopped. Searches end as found, exhausted
// (attempt budget spent), timed out or cancelled.
//
// With Redis configured the Engine also acts as the server side of the
// puzzle: it issues single-use challenges, verifies redeemed nonces and
// exchanges them for signed clearance tokens.
//
// # Architecture boundaries
//
// goArgon2 is the public surface. It exposes [Engine], [Builder], [Config]
// and value types. The search engine lives in package pow, the Argon2
// primitive in kdf, challenge storage in challenge and tokens in clearance.
// Rate limiting, audit dispatch and metrics storage live under internal/.
//
// Engine methods are safe to call from multiple goroutines after
// [Builder.Build]. At most one PoW search runs per Engine.
package goArgon2
