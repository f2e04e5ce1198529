package kdf

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameters is returned when a cost parameter is outside the supported range.
	ErrInvalidParameters = errors.New("invalid argon2 parameters")
	// ErrUnsupportedMode is returned for Argon2 variants this build cannot compute.
	ErrUnsupportedMode = fmt.Errorf("%w: unsupported mode", ErrInvalidParameters)
	// ErrInvalidEncodedHash is returned when a PHC string cannot be parsed.
	ErrInvalidEncodedHash = errors.New("invalid encoded hash")
)
