package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/sakif/admin-console/internal/apperror"
	"github.com/sakif/admin-console/internal/model"
)

// GitHubUserURL is GitHub's authenticated-user endpoint.
const GitHubUserURL = "https://api.github.com/user"

// DefaultProviderTimeout bounds each outbound call to GitHub.
const DefaultProviderTimeout = 10 * time.Second

// ProviderConfig holds the OAuth app registration and the HTTP settings for
// talking to GitHub. Endpoint and UserURL default to github.com; tests point
// them at an httptest server.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	Endpoint     oauth2.Endpoint
	UserURL      string
	Timeout      time.Duration
	Transport    http.RoundTripper
}

// GitHubProvider drives the OAuth 2.0 authorization-code flow against GitHub.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
//  1. AuthURL: the browser is sent to GitHub with our client id and a state
//  2. GitHub redirects back with a one-time code
//  3. ExchangeCode: the code and client secret are POSTed to GitHub for an
//     access token (server to server)
//  4. FetchUser: the access token reads the GitHub profile
//
// Neither outbound call is retried. Both run under the request context and
// the client timeout.
type GitHubProvider struct {
	config  *oauth2.Config
	userURL string
	client  *http.Client
}

// NewGitHubProvider creates a GitHubProvider.
//
// Scopes default to "read:user" (public profile) and "user:email".
func NewGitHubProvider(cfg ProviderConfig) *GitHubProvider {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" || endpoint.TokenURL == "" {
		endpoint = github.Endpoint
	}
	// GitHub takes client credentials as form parameters.
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"read:user", "user:email"}
	}

	userURL := cfg.UserURL
	if userURL == "" {
		userURL = GitHubUserURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}

	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		userURL: userURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(base),
		},
	}
}

// AuthURL returns the GitHub authorization URL for state. It carries the
// client id, redirect URI, scopes and state; it has no side effects.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for a GitHub access token.
//
// GitHub reports a bad code with HTTP 200 and an "error" field in the body;
// x/oauth2 turns both that and non-2xx answers into a *oauth2.RetrieveError.
// The returned error wraps apperror.ErrTokenExchange and carries GitHub's
// error_description when it sent one.
func (p *GitHubProvider) ExchangeCode(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("auth: exchanging OAuth code: %w", apperror.TokenExchange(exchangeDetail(err)))
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("auth: exchanging OAuth code: %w", apperror.TokenExchange("empty access token"))
	}

	return token.AccessToken, nil
}

func exchangeDetail(err error) string {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return err.Error()
	}
	switch {
	case re.ErrorDescription != "":
		return re.ErrorDescription
	case re.ErrorCode != "":
		return re.ErrorCode
	case re.Response != nil:
		return fmt.Sprintf("token endpoint returned status %d", re.Response.StatusCode)
	default:
		return re.Error()
	}
}

// FetchUser reads the profile of the user owning accessToken.
// Non-2xx answers, transport failures and profiles without an id are
// reported as apperror.ErrUserFetch.
func (p *GitHubProvider) FetchUser(ctx context.Context, accessToken string) (*model.GitHubUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building GitHub /user request: %w", apperror.UserFetch(err.Error()))
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "admin-console")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", apperror.UserFetch(err.Error()))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w",
			apperror.UserFetch(fmt.Sprintf("status %d", resp.StatusCode)))
	}

	var ghUser model.GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", apperror.UserFetch(err.Error()))
	}

	if ghUser.ID == 0 {
		return nil, fmt.Errorf("auth: %w", apperror.UserFetch("GitHub returned a user without an id"))
	}

	return &ghUser, nil
}

// NormalizeUser maps a GitHub profile onto the application user.
// LastLoginAt is set to now.
func NormalizeUser(gh *model.GitHubUser, now time.Time) model.User {
	return model.User{
		ID:          gh.ID,
		Username:    gh.Login,
		Name:        gh.Name,
		Email:       gh.Email,
		Avatar:      gh.AvatarURL,
		ProfileURL:  gh.HTMLURL,
		Bio:         deref(gh.Bio),
		Location:    deref(gh.Location),
		Company:     deref(gh.Company),
		Website:     gh.Blog,
		PublicRepos: gh.PublicRepos,
		Followers:   gh.Followers,
		Following:   gh.Following,
		JoinedAt:    gh.CreatedAt,
		LastLoginAt: now,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
