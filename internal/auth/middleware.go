package auth

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sakif/admin-console/internal/apperror"
	"github.com/sakif/admin-console/internal/model"
	"github.com/sakif/admin-console/internal/respond"
)

// AdminPolicy decides whether an authenticated user may use admin routes.
type AdminPolicy interface {
	IsAdmin(user model.SessionUser) bool
}

// AdminFunc adapts a plain function to AdminPolicy.
type AdminFunc func(user model.SessionUser) bool

func (f AdminFunc) IsAdmin(user model.SessionUser) bool { return f(user) }

// AllowList grants admin to a fixed set of usernames. GitHub logins are
// case-insensitive, so membership is too.
type AllowList map[string]struct{}

// NewAllowList builds an AllowList; blank names are ignored.
func NewAllowList(usernames ...string) AllowList {
	list := make(AllowList, len(usernames))
	for _, name := range usernames {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			list[name] = struct{}{}
		}
	}
	return list
}

func (l AllowList) IsAdmin(user model.SessionUser) bool {
	_, ok := l[strings.ToLower(user.Username)]
	return ok
}

// Guard wraps handlers with the access policies of the application.
//
//	| Mode           | unauthenticated          | authenticated                     |
//	|----------------|--------------------------|-----------------------------------|
//	| RequireAuth    | 302 to login             | pass                              |
//	| OptionalAuth   | pass (anonymous context) | pass                              |
//	| RequireAPIAuth | 401 JSON                 | pass                              |
//	| RequireAdmin   | 302 to login             | 403 JSON unless admin, else pass  |
//
// Browser routes redirect so the user lands back where they were after
// logging in. API routes never redirect: HTTP clients get a status and a
// JSON body they can branch on.
type Guard struct {
	resolver  *Resolver
	loginPath string
	logger    *slog.Logger
}

// NewGuard creates a Guard. loginPath is the endpoint that starts the OAuth
// flow; it receives the original URL in its "redirect" query parameter.
func NewGuard(resolver *Resolver, loginPath string, logger *slog.Logger) *Guard {
	return &Guard{
		resolver:  resolver,
		loginPath: loginPath,
		logger:    logger,
	}
}

// RequireAuth redirects anonymous browsers to the login endpoint.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac := g.resolve(r)
		if !ac.IsAuthenticated {
			g.redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), ac)))
	})
}

// OptionalAuth attaches whatever identity the request carries and always
// continues. Handlers check FromContext(ctx).IsAuthenticated.
func (g *Guard) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac := g.resolve(r)
		next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), ac)))
	})
}

// RequireAPIAuth answers anonymous API calls with 401 JSON.
func (g *Guard) RequireAPIAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac := g.resolve(r)
		if !ac.IsAuthenticated {
			respond.Error(w, g.logger, apperror.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), ac)))
	})
}

// RequireAdmin redirects anonymous browsers to login, rejects signed-in
// users the policy does not recognise with 403, and marks admins with
// IsAdmin before continuing.
func (g *Guard) RequireAdmin(policy AdminPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac := g.resolve(r)
			if !ac.IsAuthenticated {
				g.redirectToLogin(w, r)
				return
			}

			if !policy.IsAdmin(*ac.User) {
				g.logger.Warn("admin access denied",
					slog.String("username", ac.User.Username),
					slog.String("path", r.URL.Path),
				)
				respond.Error(w, g.logger, apperror.Forbidden("Access denied"))
				return
			}

			ac.IsAdmin = true
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), ac)))
		})
	}
}

// resolve reuses a context attached by an outer guard; otherwise it resolves
// the request from scratch.
func (g *Guard) resolve(r *http.Request) AuthContext {
	if ac, ok := r.Context().Value(authContextKey).(AuthContext); ok && ac.IsAuthenticated {
		return ac
	}
	return g.resolver.Resolve(r)
}

func (g *Guard) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := g.loginPath + "?redirect=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusFound)
}
