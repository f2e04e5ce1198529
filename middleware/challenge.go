package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	goArgon2 "github.com/MrEthical07/goArgon2"
)

// RedeemRequest is the body accepted by [RedeemHandler].
type RedeemRequest struct {
	ID    string `json:"id"`
	Nonce uint32 `json:"nonce"`
}

// IssueHandler responds to GET with a fresh challenge for the request's
// client key.
func IssueHandler(engine *goArgon2.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		ch, err := engine.IssueChallenge(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ch)
	})
}

// RedeemHandler responds to POST with a clearance token when the posted
// nonce solves the challenge.
func RedeemHandler(engine *goArgon2.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req RedeemRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil || req.ID == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		cl, err := engine.RedeemChallenge(r.Context(), req.ID, req.Nonce)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cl)
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, goArgon2.ErrChallengeRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, goArgon2.ErrChallengeNotFound):
		return http.StatusNotFound
	case errors.Is(err, goArgon2.ErrChallengeRejected),
		errors.Is(err, goArgon2.ErrChallengeClientMismatch):
		return http.StatusForbidden
	case errors.Is(err, goArgon2.ErrChallengeDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusServiceUnavailable
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	http.Error(w, http.StatusText(status), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
