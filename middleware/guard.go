package middleware

import (
	"context"
	"net/http"
	"strings"

	goArgon2 "github.com/MrEthical07/goArgon2"
)

// ClearanceHeader is read when the request carries no bearer token.
const ClearanceHeader = "X-Pow-Clearance"

type claimsContextKey struct{}

// ClaimsFromContext returns the clearance claims injected by [RequireClearance].
func ClaimsFromContext(ctx context.Context) (*goArgon2.ClearanceClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*goArgon2.ClearanceClaims)
	return claims, ok
}

// RequireClearance rejects requests that do not present a clearance token
// issued to the request's client key. Place it behind [ClientKey] so the
// subject check has a key to compare against.
func RequireClearance(engine *goArgon2.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "clearance required", http.StatusForbidden)
				return
			}

			token, ok := clearanceToken(r)
			if !ok {
				http.Error(w, "clearance required", http.StatusForbidden)
				return
			}

			claims, err := engine.ValidateClearance(r.Context(), token)
			if err != nil {
				http.Error(w, "clearance required", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clearanceToken(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}
	token := strings.TrimSpace(r.Header.Get(ClearanceHeader))
	return token, token != ""
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
