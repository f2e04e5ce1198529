// Package kdf wraps the Argon2 memory-hard key derivation function used for
// both password hashing and proof-of-work digests.
//
// # Output format
//
// Encoded hashes use the PHC string format produced by the reference Argon2
// implementation:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Salt and hash are unpadded standard base64. Padded input is accepted when
// parsing.
//
// # Architecture boundaries
//
// This package owns the primitive only: parameter validation, digest
// computation, encoding and verification. Nonce search, difficulty and
// progress tracking live in package pow.
//
// # What this package must NOT do
//
//   - Import any other goArgon2 package.
//   - Log plaintext passwords or PoW inputs.
package kdf
