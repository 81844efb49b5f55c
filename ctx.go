package taskapi

import (
	"context"
)

var authCtxKey = &contextKey{"auth"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// AuthContext is the request-scoped record of the current caller. It is
// created by the request authenticator when a valid token is present and
// discarded with the request; its absence means the request is anonymous.
type AuthContext struct {
	Claims   AuthClaims
	Identity Identity
}

// Authorities returns the caller's role strings.
func (a *AuthContext) Authorities() []string {
	if a == nil || a.Claims == nil {
		return nil
	}
	return []string{a.Claims.Role()}
}

// HasAuthority reports whether the caller holds the given role.
func (a *AuthContext) HasAuthority(role string) bool {
	if a == nil || a.Claims == nil {
		return false
	}
	return a.Claims.HasRole(role)
}

// WithAuthContext sets the AuthContext in the given context
func WithAuthContext(ctx context.Context, ac *AuthContext) context.Context {
	return context.WithValue(ctx, authCtxKey, ac)
}

// AuthFromContext finds the AuthContext, if any. The second return is false
// for anonymous requests.
func AuthFromContext(ctx context.Context) (*AuthContext, bool) {
	raw, ok := ctx.Value(authCtxKey).(*AuthContext)
	return raw, ok
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}
