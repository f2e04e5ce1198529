// Package clearance signs and verifies the short-lived JWTs handed out after
// a PoW challenge is redeemed.
//
// A clearance token carries the challenge id, the difficulty that was solved
// and the winning nonce. The subject is the client key the challenge was
// issued to, so a gate can bind the token to the caller that did the work.
//
// # Algorithms
//
// Ed25519 (EdDSA) is the default; HS256 is available for single-process
// deployments that share one secret. Key rotation uses the kid header with a
// VerifyKeys map.
//
// # What this package must NOT do
//
//   - Talk to Redis or any store; single-use enforcement belongs to challenge.
//   - Import goArgon2 or any sibling package.
package clearance
