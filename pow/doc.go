// Package pow implements the concurrent proof-of-work search engine.
//
// A search looks for a nonce such that
//
//	argon2id(base || ':' || uvarint(nonce), salt)
//
// has at least RequiredBits leading zero bits. The [Coordinator] partitions
// the 32-bit nonce space into one contiguous range per worker, runs the
// workers as goroutines, returns the first valid nonce it observes and stops
// the rest.
//
// # Cancellation
//
// Cancellation is cooperative. Workers poll a shared flag between hashes and
// never abandon a hash midway, so after [Coordinator.Cancel] each worker
// performs at most one more Argon2 computation.
//
// # Progress
//
// Every worker owns one padded atomic counter. [Coordinator.Progress] sums
// them without taking locks and may be called from any goroutine while a
// search is running.
//
// # What this package must NOT do
//
//   - Share a [Hasher] between workers.
//   - Hold a lock across a hash computation.
//   - Retry failed searches; retry policy belongs to the caller.
package pow
