package goArgon2

import "context"

type clientKeyContextKey struct{}

// WithClientKey attaches the caller's identity (usually the remote IP) to
// ctx. The Engine binds issued challenges to it, rate limits issuance per
// key and records it in audit events.
func WithClientKey(ctx context.Context, clientKey string) context.Context {
	return context.WithValue(ctx, clientKeyContextKey{}, clientKey)
}

func clientKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	key, _ := ctx.Value(clientKeyContextKey{}).(string)
	return key
}
