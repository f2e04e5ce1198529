package goArgon2

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goArgon2/challenge"
	"github.com/MrEthical07/goArgon2/pow"
)

const (
	auditEventPowFound             = "pow_found"
	auditEventPowExhausted         = "pow_exhausted"
	auditEventPowTimedOut          = "pow_timed_out"
	auditEventPowCancelled         = "pow_cancelled"
	auditEventPowRejected          = "pow_rejected"
	auditEventChallengeIssued      = "challenge_issued"
	auditEventChallengeRateLimited = "challenge_rate_limited"
	auditEventChallengeRedeemed    = "challenge_redeemed"
	auditEventChallengeRejected    = "challenge_rejected"
)

// AuditErrorCode is the stable error label written to AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrCancelled         AuditErrorCode = "cancelled"
	auditErrTimedOut          AuditErrorCode = "timed_out"
	auditErrExhausted         AuditErrorCode = "exhausted"
	auditErrBusy              AuditErrorCode = "busy"
	auditErrInvalidParameters AuditErrorCode = "invalid_parameters"
	auditErrInvalidEncoding   AuditErrorCode = "invalid_encoding"
	auditErrRateLimited       AuditErrorCode = "rate_limited"
	auditErrNotFound          AuditErrorCode = "challenge_not_found"
	auditErrClientMismatch    AuditErrorCode = "client_mismatch"
	auditErrSolutionRejected  AuditErrorCode = "solution_rejected"
	auditErrUnavailable       AuditErrorCode = "backend_unavailable"
	auditErrInternal          AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	challengeID string,
	searchID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp:   time.Now().UTC(),
		EventType:   eventType,
		ClientKey:   clientKeyFromContext(ctx),
		ChallengeID: challengeID,
		SearchID:    searchID,
		Success:     success,
		Metadata:    metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditEventForStatus(s pow.Status) string {
	switch s {
	case pow.StatusFound:
		return auditEventPowFound
	case pow.StatusTimedOut:
		return auditEventPowTimedOut
	case pow.StatusCancelled:
		return auditEventPowCancelled
	default:
		return auditEventPowExhausted
	}
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrPowCancelled):
		return auditErrCancelled
	case errors.Is(err, ErrPowTimedOut):
		return auditErrTimedOut
	case errors.Is(err, ErrPowExhausted):
		return auditErrExhausted
	case errors.Is(err, ErrPowBusy):
		return auditErrBusy
	case errors.Is(err, ErrInvalidParameters):
		return auditErrInvalidParameters
	case errors.Is(err, ErrInvalidEncoding):
		return auditErrInvalidEncoding
	case errors.Is(err, ErrChallengeRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrChallengeNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrChallengeClientMismatch):
		return auditErrClientMismatch
	case errors.Is(err, ErrChallengeRejected):
		return auditErrSolutionRejected
	case errors.Is(err, ErrChallengeUnavailable),
		errors.Is(err, challenge.ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
