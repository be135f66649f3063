package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/admin-console/internal/model"
)

// AuthContext is the per-request identity. It is rebuilt from the inbound
// token on every request and never cached.
type AuthContext struct {
	IsAuthenticated bool               `json:"isAuthenticated"`
	User            *model.SessionUser `json:"user"`
	// IsAdmin is only set by RequireAdmin.
	IsAdmin bool `json:"isAdmin,omitempty"`
	// ExpiresAt is the exp claim of the token that authenticated the request.
	ExpiresAt time.Time `json:"-"`
}

// anonymous is the single "not signed in" value. Missing, malformed,
// tampered and expired tokens all resolve to it.
var anonymous = AuthContext{IsAuthenticated: false, User: nil}

// contextKey is an unexported type used for context keys in this package.
type contextKey string

const authContextKey contextKey = "authContext"

// WithAuthContext stores ac in ctx.
func WithAuthContext(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

// FromContext returns the AuthContext attached by a Guard middleware, or the
// anonymous context when none is attached.
func FromContext(ctx context.Context) AuthContext {
	ac, ok := ctx.Value(authContextKey).(AuthContext)
	if !ok {
		return anonymous
	}
	return ac
}

// Resolver turns an inbound request into an AuthContext.
type Resolver struct {
	tokens *TokenService
}

// NewResolver creates a Resolver backed by tokens.
func NewResolver(tokens *TokenService) *Resolver {
	return &Resolver{tokens: tokens}
}

// ExtractToken returns the raw session token of r.
//
// PRECEDENCE: "Authorization: Bearer <token>" first, then the auth_token
// cookie. An API client presenting a bearer token is never overridden by a
// stale browser cookie.
func (res *Resolver) ExtractToken(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}
	return ReadCookie(r, SessionCookieName)
}

// Resolve never fails: any problem with the token yields the anonymous
// context, with no hint of which check rejected it.
func (res *Resolver) Resolve(r *http.Request) AuthContext {
	token, ok := res.ExtractToken(r)
	if !ok {
		return anonymous
	}

	claims, ok := res.tokens.Verify(token)
	if !ok {
		return anonymous
	}

	user := ProjectUser(claims)
	return AuthContext{
		IsAuthenticated: true,
		User:            &user,
		ExpiresAt:       claims.ExpiresAt.Time,
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
