// Package service holds the login business logic.
//
// AuthService sits between the HTTP handlers and the auth package:
//
//	AuthHandler (HTTP) → AuthService (login rules) → IdentityProvider (GitHub)
//	                                               ↘ TokenIssuer (JWT)
//
// It owns the callback pipeline (exchange, fetch, normalize, issue) and
// knows nothing about cookies, redirects or routers. Nothing is persisted:
// the signed token is the whole session.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/admin-console/internal/apperror"
	"github.com/sakif/admin-console/internal/auth"
	"github.com/sakif/admin-console/internal/model"
)

// IdentityProvider is the part of the OAuth client the login needs.
// *auth.GitHubProvider satisfies it; tests use a fake.
type IdentityProvider interface {
	ExchangeCode(ctx context.Context, code string) (string, error)
	FetchUser(ctx context.Context, accessToken string) (*model.GitHubUser, error)
}

// TokenIssuer signs session tokens. *auth.TokenService satisfies it.
type TokenIssuer interface {
	Issue(u model.User) (string, error)
	Lifetime() time.Duration
}

// AuthService completes GitHub logins.
type AuthService struct {
	provider IdentityProvider
	tokens   TokenIssuer
	now      func() time.Time
	logger   *slog.Logger
}

// NewAuthService creates an AuthService. now stamps LastLoginAt; nil means
// time.Now.
func NewAuthService(provider IdentityProvider, tokens TokenIssuer, now func() time.Time, logger *slog.Logger) *AuthService {
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		provider: provider,
		tokens:   tokens,
		now:      now,
		logger:   logger,
	}
}

// LoginResult bundles what the handler needs to finish the callback: the
// normalized user, the signed token and how long the cookie should live.
type LoginResult struct {
	User      model.User
	Token     string
	MaxAge    time.Duration
	ExpiresAt time.Time
}

// CompleteLogin runs the server side of the OAuth callback for code.
//
// FLOW:
//  1. Exchange the code for a GitHub access token
//  2. Fetch the GitHub profile with it
//  3. Normalize the profile into a model.User
//  4. Sign a session token for that user
//
// Errors wrap apperror.ErrTokenExchange or apperror.ErrUserFetch for the
// first two steps. A signing failure is returned as is; the handler maps
// anything else to a generic authentication failure.
func (s *AuthService) CompleteLogin(ctx context.Context, code string) (*LoginResult, error) {
	if code == "" {
		return nil, apperror.ValidationFailed("code", "authorization code is required")
	}

	accessToken, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	ghUser, err := s.provider.FetchUser(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	issuedAt := s.now()
	user := auth.NormalizeUser(ghUser, issuedAt)

	token, err := s.tokens.Issue(user)
	if err != nil {
		if errors.Is(err, auth.ErrNoSigningKey) {
			s.logger.Error("login attempted without a JWT secret")
		}
		return nil, fmt.Errorf("service/auth: issuing token for %s: %w", user.Username, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)

	lifetime := s.tokens.Lifetime()
	return &LoginResult{
		User:      user,
		Token:     token,
		MaxAge:    lifetime,
		ExpiresAt: issuedAt.Add(lifetime),
	}, nil
}
