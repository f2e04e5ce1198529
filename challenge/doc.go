// Package challenge issues PoW puzzles and redeems solutions against Redis.
//
// An [Issuer] stores each [Challenge] as JSON under <prefix>:c:<id> with the
// configured TTL. [Issuer.Redeem] removes the record with GETDEL before it
// verifies the nonce, so every challenge is single-use even under concurrent
// redemption attempts.
//
// The puzzle is the one solved by pow.Coordinator: find a nonce such that
// argon2id(base || ':' || uvarint(nonce), salt) has Difficulty leading zero
// bits.
package challenge
