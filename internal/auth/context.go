package auth

import "context"

// ctxKey is the private key type for request-scoped identity.
type ctxKey struct{}

// WithUserID returns a context carrying the verified subject identifier.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID extracts the verified subject identifier from the context.
// The second return is false when the request did not pass the auth gate.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok
}
