package middleware

import (
	"net"
	"net/http"

	goArgon2 "github.com/MrEthical07/goArgon2"
)

// KeyFunc derives the client key of a request.
type KeyFunc func(*http.Request) string

// RemoteIP keys clients by the host part of RemoteAddr. Deployments behind
// a proxy should supply their own KeyFunc.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientKey attaches keyFn(r) to the request context with
// [goArgon2.WithClientKey]. A nil keyFn means [RemoteIP].
func ClientKey(keyFn KeyFunc) func(http.Handler) http.Handler {
	if keyFn == nil {
		keyFn = RemoteIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := goArgon2.WithClientKey(r.Context(), keyFn(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
