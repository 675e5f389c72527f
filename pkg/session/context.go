package session

import "context"

type contextKey struct{ name string }

func (c contextKey) String() string { return c.name }

var claimsContextKey = &contextKey{name: "session_claims"}

// WithClaims stores verified claims in ctx.
func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext returns the claims stored by Middleware.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(Claims)
	return claims, ok
}

// Subject returns the authenticated account, or "" outside a session.
func Subject(ctx context.Context) string {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return ""
	}
	return claims.Subject
}
