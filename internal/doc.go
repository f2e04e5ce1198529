// Package internal contains helpers that are intentionally private to goArgon2,
// most notably crypto/rand backed nonce offsets and challenge material.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - metrics: padded atomic counters and latency histograms
//   - rate: Redis-backed fixed-window limiter for challenge issuance
//
// # What this package must NOT do
//
//   - Export types that appear in the public goArgon2 API.
//   - Be imported by any package outside the goArgon2 module.
package internal
