package goArgon2

import (
	"errors"

	"github.com/MrEthical07/goArgon2/challenge"
	"github.com/MrEthical07/goArgon2/clearance"
	"github.com/MrEthical07/goArgon2/kdf"
	"github.com/MrEthical07/goArgon2/pow"
)

var (
	// ErrEngineNotReady is returned by methods called on a nil or closed Engine.
	ErrEngineNotReady = errors.New("engine not ready")

	// ErrPowCancelled maps a cancelled search through PowResult.Err.
	ErrPowCancelled = errors.New("pow search cancelled")
	// ErrPowTimedOut maps a search that hit its deadline.
	ErrPowTimedOut = errors.New("pow search timed out")
	// ErrPowExhausted maps a search that spent its attempt budget.
	ErrPowExhausted = errors.New("pow search exhausted")
	// ErrPowBusy is returned when a search is already running and the busy
	// policy rejects overlapping calls.
	ErrPowBusy = pow.ErrBusy

	// ErrInvalidEncoding covers malformed hex, base64 or nonce encodings.
	ErrInvalidEncoding = pow.ErrInvalidEncoding
	// ErrInvalidParameters covers Argon2 cost parameters outside the accepted range.
	ErrInvalidParameters = kdf.ErrInvalidParameters
	// ErrUnsupportedMode is returned for argon2d and unknown modes. It wraps ErrInvalidParameters.
	ErrUnsupportedMode = kdf.ErrUnsupportedMode
	// ErrInvalidEncodedHash is returned by Verify for unparseable PHC strings.
	ErrInvalidEncodedHash = kdf.ErrInvalidEncodedHash

	ErrChallengeDisabled       = errors.New("challenges disabled")
	ErrChallengeRateLimited    = errors.New("challenge issuance rate limited")
	ErrChallengeUnavailable    = errors.New("challenge backend unavailable")
	ErrChallengeNotFound       = challenge.ErrNotFound
	ErrChallengeRejected       = challenge.ErrSolutionRejected
	ErrChallengeClientMismatch = challenge.ErrClientMismatch

	// ErrClearanceInvalid is returned by ValidateClearance for any token that
	// fails signature, expiry or claim checks.
	ErrClearanceInvalid = clearance.ErrInvalidToken
)
