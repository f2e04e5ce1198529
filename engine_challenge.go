package goArgon2

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/goArgon2/challenge"
	"github.com/MrEthical07/goArgon2/clearance"
	"github.com/MrEthical07/goArgon2/internal/rate"
	"go.uber.org/zap"
)

// Challenge is a PoW puzzle issued by [Engine.IssueChallenge].
type Challenge = challenge.Challenge

// ClearanceClaims is the verified payload of a clearance token.
type ClearanceClaims = clearance.Claims

// Clearance is handed out for a redeemed challenge.
type Clearance struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueChallenge creates a challenge bound to the client key attached to
// ctx with [WithClientKey]. Issuance is rate limited per client key.
func (e *Engine) IssueChallenge(ctx context.Context) (Challenge, error) {
	if err := e.ready(); err != nil {
		return Challenge{}, err
	}
	if e.issuer == nil {
		return Challenge{}, ErrChallengeDisabled
	}
	clientKey := clientKeyFromContext(ctx)

	if err := e.rateLimiter.CheckIssue(ctx, clientKey); err != nil {
		err = mapRateError(err)
		if errors.Is(err, ErrChallengeRateLimited) {
			e.metricInc(MetricChallengeRateLimited)
			e.emitAudit(ctx, auditEventChallengeRateLimited, false, "", "", err, nil)
		}
		return Challenge{}, err
	}

	ch, err := e.issuer.Issue(ctx, clientKey)
	if err != nil {
		if errors.Is(err, challenge.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %v", ErrChallengeUnavailable, err)
		}
		e.emitAudit(ctx, auditEventChallengeIssued, false, "", "", err, nil)
		return Challenge{}, err
	}

	e.metricInc(MetricChallengeIssued)
	e.emitAudit(ctx, auditEventChallengeIssued, true, ch.ID, "", nil, func() map[string]string {
		return map[string]string{"difficulty": strconv.FormatUint(uint64(ch.Difficulty), 10)}
	})
	return ch, nil
}

// RedeemChallenge verifies nonce against the challenge id and exchanges it
// for a clearance token. A challenge can be redeemed once; a wrong nonce
// consumes it as well and counts against the client's rejection budget.
func (e *Engine) RedeemChallenge(ctx context.Context, id string, nonce uint32) (Clearance, error) {
	if err := e.ready(); err != nil {
		return Clearance{}, err
	}
	if e.issuer == nil {
		return Clearance{}, ErrChallengeDisabled
	}
	clientKey := clientKeyFromContext(ctx)

	sol, err := e.issuer.Redeem(ctx, id, clientKey, nonce)
	if err != nil {
		switch {
		case errors.Is(err, challenge.ErrStoreUnavailable):
			err = fmt.Errorf("%w: %v", ErrChallengeUnavailable, err)
		case errors.Is(err, ErrChallengeRejected), errors.Is(err, ErrChallengeClientMismatch):
			if recErr := e.rateLimiter.RecordRejection(ctx, clientKey); recErr != nil {
				e.logger.Warn("record challenge rejection failed", zap.Error(recErr))
			}
		}
		e.metricInc(MetricChallengeRejected)
		e.emitAudit(ctx, auditEventChallengeRejected, false, id, "", err, nil)
		return Clearance{}, err
	}

	token, err := e.clearance.Issue(clearance.Grant{
		ChallengeID: sol.Challenge.ID,
		ClientKey:   sol.Challenge.ClientKey,
		Difficulty:  sol.Challenge.Difficulty,
		Nonce:       sol.Nonce,
	})
	if err != nil {
		e.emitAudit(ctx, auditEventChallengeRedeemed, false, id, "", err, nil)
		return Clearance{}, err
	}

	e.metricInc(MetricChallengeRedeemed)
	e.emitAudit(ctx, auditEventChallengeRedeemed, true, id, "", nil, func() map[string]string {
		return map[string]string{
			"difficulty": strconv.FormatUint(uint64(sol.Challenge.Difficulty), 10),
			"nonce":      strconv.FormatUint(uint64(sol.Nonce), 10),
		}
	})
	return Clearance{Token: token, ExpiresAt: time.Now().Add(e.clearance.TTL())}, nil
}

// ValidateClearance parses a clearance token. When ctx carries a client
// key, the token must have been issued to that key.
func (e *Engine) ValidateClearance(ctx context.Context, token string) (*ClearanceClaims, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if e.clearance == nil {
		return nil, ErrChallengeDisabled
	}

	claims, err := e.clearance.Parse(token)
	if err == nil {
		if key := clientKeyFromContext(ctx); key != "" && claims.Subject != "" && claims.Subject != key {
			err = fmt.Errorf("%w: issued to a different client", ErrClearanceInvalid)
		}
	}
	if err != nil {
		e.metricInc(MetricClearanceInvalid)
		return nil, err
	}

	e.metricInc(MetricClearanceValid)
	return claims, nil
}

func mapRateError(err error) error {
	switch {
	case errors.Is(err, rate.ErrRateLimited):
		return ErrChallengeRateLimited
	case errors.Is(err, rate.ErrRedisUnavailable):
		return fmt.Errorf("%w: %v", ErrChallengeUnavailable, err)
	default:
		return err
	}
}
