package handler

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/admin-console/internal/apperror"
	"github.com/sakif/admin-console/internal/auth"
	"github.com/sakif/admin-console/internal/respond"
	"github.com/sakif/admin-console/internal/service"
)

// Authorizer builds the provider's authorization URL for a state value.
type Authorizer interface {
	AuthURL(state string) string
}

// LoginCompleter finishes a login from an authorization code.
type LoginCompleter interface {
	CompleteLogin(ctx context.Context, code string) (*service.LoginResult, error)
}

// AuthHandler serves the OAuth login flow and the session endpoints.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin    → set transit cookies, redirect the browser to GitHub
//   - HandleCallback → check state, complete the login, set auth_token
//   - HandleMe       → report the identity of the current request
//   - HandleLogout   → clear auth_token
type AuthHandler struct {
	provider Authorizer
	logins   LoginCompleter
	cookies  *auth.CookieFactory
	// configProblems is the result of config validation at startup. When it
	// is non-empty the login endpoint refuses to start a flow.
	configProblems []string
	logger         *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(
	provider Authorizer,
	logins LoginCompleter,
	cookies *auth.CookieFactory,
	configProblems []string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		provider:       provider,
		logins:         logins,
		cookies:        cookies,
		configProblems: configProblems,
		logger:         logger,
	}
}

// HandleLogin starts the OAuth flow.
//
// HTTP: GET /api/auth/github[?redirect=/path]
//
// CSRF PROTECTION VIA STATE:
// A random state goes both into the authorization URL and into the
// short-lived oauth_state cookie. The callback only proceeds when GitHub
// hands back the same value, proving this server started the flow. The
// post-login destination rides along in oauth_redirect.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if len(h.configProblems) > 0 {
		h.logger.Error("OAuth login refused: invalid configuration",
			slog.Any("problems", h.configProblems),
		)
		respond.Error(w, h.logger, apperror.Configuration(h.configProblems))
		return
	}

	state := uuid.NewString()
	redirectTo := sanitizeRedirect(r.URL.Query().Get("redirect"))

	for _, c := range h.cookies.Transit(state, redirectTo) {
		http.SetCookie(w, c)
	}

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusFound)
}

// HandleCallback completes the OAuth flow.
//
// HTTP: GET /api/auth/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Clear the transit cookies (single use, whatever happens next)
//  2. Compare the state parameter with oauth_state
//  3. Bail out if GitHub reported an error (e.g. the user denied access)
//  4. Exchange the code, fetch the profile and sign a token
//  5. Set auth_token and redirect to the stored destination
//
// Every failure redirects to /?error=<code>; details only go to the log.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	storedState, _ := auth.ReadCookie(r, auth.StateCookieName)
	storedRedirect, _ := auth.ReadCookie(r, auth.RedirectCookieName)

	for _, c := range h.cookies.ClearTransit() {
		http.SetCookie(w, c)
	}

	if !statesMatch(storedState, q.Get("state")) {
		err := apperror.StateMismatch()
		h.logger.Warn("auth callback: rejected", slog.String("error", err.Error()))
		h.failCallback(w, r, callbackErrorCode(err))
		return
	}

	if providerErr := q.Get("error"); providerErr != "" {
		h.logger.Warn("auth callback: provider returned an error",
			slog.String("error", providerErr),
			slog.String("description", q.Get("error_description")),
		)
		h.failCallback(w, r, providerErr)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.logger.Warn("auth callback: missing code")
		h.failCallback(w, r, errCodeMissingCode)
		return
	}

	result, err := h.logins.CompleteLogin(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: login failed", slog.String("error", err.Error()))
		h.failCallback(w, r, callbackErrorCode(err))
		return
	}

	destination := sanitizeRedirect(storedRedirect)
	h.logger.Info("auth callback: signed in",
		slog.Int64("user_id", result.User.ID),
		slog.String("username", result.User.Username),
		slog.Time("expires_at", result.ExpiresAt),
		slog.String("redirect", destination),
	)

	http.SetCookie(w, h.cookies.Session(result.Token, result.MaxAge))
	http.Redirect(w, r, destination, http.StatusFound)
}

func (h *AuthHandler) failCallback(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/?error="+url.QueryEscape(code), http.StatusFound)
}

// MeResponse is the body of GET /api/auth/me for a signed-in caller.
type MeResponse struct {
	Authenticated bool   `json:"authenticated"`
	User          any    `json:"user"`
	ExpiresAt     string `json:"expiresAt"`
}

// HandleMe reports who the request belongs to.
//
// HTTP: GET /api/auth/me
// Auth: OptionalAuth (an anonymous caller gets 401 JSON, not a redirect)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ac := auth.FromContext(r.Context())
	if !ac.IsAuthenticated {
		respond.Error(w, h.logger, apperror.Unauthorized("Not authenticated"))
		return
	}

	respond.JSON(w, h.logger, http.StatusOK, MeResponse{
		Authenticated: true,
		User:          ac.User,
		ExpiresAt:     ac.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// HandleLogout clears the session cookie.
//
// HTTP: GET or POST /api/auth/logout
//
// Tokens are not revocable: logging out removes the cookie from this
// browser, and a copied token stays valid until its exp.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookies.Clear())

	if wantsJSON(r) {
		respond.JSON(w, h.logger, http.StatusOK, map[string]any{
			"success":    true,
			"message":    "Logged out successfully",
			"redirectTo": "/",
		})
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// statesMatch compares the callback state with the cookie in constant time.
// An empty stored state never matches.
func statesMatch(stored, got string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(got)) == 1
}

// sanitizeRedirect keeps post-login redirects on this site. Only absolute
// local paths survive; anything else falls back to "/".
//
// Browsers strip tabs and newlines while parsing a Location header, so
// "/\t/evil.example" would be followed as "//evil.example". Control
// characters are rejected outright before the path is parsed.
func sanitizeRedirect(target string) string {
	if target == "" || target[0] != '/' {
		return "/"
	}
	for i := 0; i < len(target); i++ {
		if c := target[i]; c < 0x20 || c == 0x7f {
			return "/"
		}
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, `/\`) {
		return "/"
	}
	parsed, err := url.Parse(target)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return "/"
	}
	return target
}

// wantsJSON reports whether the caller is a script rather than a browser
// navigation.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
}
