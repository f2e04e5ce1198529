// Package middleware exposes the HTTP side of a proof-of-work gate built on
// goArgon2.Engine.
//
// # Pieces
//
//   - [ClientKey] attaches a per-client key (the remote IP by default).
//   - [IssueHandler] hands out challenges.
//   - [RedeemHandler] exchanges a solved challenge for a clearance token.
//   - [RequireClearance] guards routes behind a valid clearance token.
//
// # What this package must NOT do
//
//   - Parse or sign clearance tokens directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Solve challenges. Clients do that with Engine.SolveChallenge or an
//     equivalent Argon2id search.
package middleware
