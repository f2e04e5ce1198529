// Package rate provides the Redis-backed limiter that guards PoW challenge
// issuance.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key suffixes
// under the configured prefix:
//   - ":ri:" counts challenges issued per client key
//   - ":rr:" counts rejected redemptions per client key
//
// # What this package must NOT do
//
//   - Decide what a client key is (the Engine derives it from the request context).
//   - Be imported outside the goArgon2 module.
package rate
