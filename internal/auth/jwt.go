// Package auth implements the session pipeline: GitHub OAuth, signed session
// tokens, cookie transport, request identity resolution and route guards.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. GET /api/auth/github redirects to GitHub with a random state
//  2. GitHub calls back /api/auth/callback with a one-time code
//  3. The code is exchanged for an access token and the GitHub profile
//  4. The profile is normalized and signed into a JWT, stored in auth_token
//  5. Every later request is resolved from that cookie (or a Bearer header)
//
// JWT STRUCTURE (three base64url parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:    {"alg":"HS256","typ":"JWT"}
//	- Payload:   {"sub":"1","username":"alice",...,"iat":...,"exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)
//
// The token is the only session state. There is no store to consult and no
// revocation: a token stays valid until exp.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/sakif/admin-console/internal/model"
)

// tokenIssuer is written to and required in the "iss" claim.
const tokenIssuer = "admin-console"

// DefaultTokenLifetime applies when no positive lifetime is configured.
const DefaultTokenLifetime = 24 * time.Hour

// ErrNoSigningKey is returned by Issue when the service has no secret.
var ErrNoSigningKey = errors.New("auth: no signing secret configured")

// Claims is the signed payload of a session token.
//
// "sub" carries the GitHub user id as a decimal string. Only the identity
// fields needed to render a signed-in header travel in the token.
type Claims struct {
	Username string  `json:"username"`
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Avatar   string  `json:"avatar"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 session tokens.
//
// It is immutable after construction and safe for concurrent use.
type TokenService struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces time.Now. Tests use it to move across the expiry boundary.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a TokenService.
//
// An empty secret is accepted so the server can still start and report the
// misconfiguration, but such a service refuses to sign and rejects every token.
func NewTokenService(secret string, lifetime time.Duration, opts ...TokenOption) *TokenService {
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	s := &TokenService{
		secret:   []byte(secret),
		lifetime: lifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lifetime is the duration between iat and exp of every issued token.
func (s *TokenService) Lifetime() time.Duration {
	return s.lifetime
}

// Issue signs a session token for u with iat = now and exp = now + lifetime.
// Only u.Session() is embedded; ProjectUser recovers it from the claims.
func (s *TokenService) Issue(u model.User) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrNoSigningKey
	}

	su := u.Session()
	now := s.now()
	c := Claims{
		Username: su.Username,
		Name:     su.Name,
		Email:    su.Email,
		Avatar:   su.Avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(su.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
			Issuer:    tokenIssuer,
			ID:        xid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify returns the claims of a well-formed, correctly signed, unexpired
// token. Every other input yields (nil, false): callers must not be able to
// tell a tampered token from an expired or absent one.
//
// CHECKS:
//   - HS256 only (blocks "none" and algorithm-confusion tokens)
//   - canonical base64url segments (no slack in the trailing bits)
//   - signature against the configured secret
//   - issuer and a non-empty subject
//   - exp strictly after now
func (s *TokenService) Verify(tokenStr string) (*Claims, bool) {
	if len(s.secret) == 0 || tokenStr == "" {
		return nil, false
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, false
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || c.Subject == "" {
		return nil, false
	}

	// jwt accepts a token at exactly exp; the session ends at exp.
	if c.ExpiresAt == nil || !s.now().Before(c.ExpiresAt.Time) {
		return nil, false
	}

	return c, true
}

// ProjectUser maps verified claims back to the identity fields they carry.
// A subject that is not a decimal id projects to ID 0.
func ProjectUser(c *Claims) model.SessionUser {
	if c == nil {
		return model.SessionUser{}
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		id = 0
	}
	return model.SessionUser{
		ID:       id,
		Username: c.Username,
		Name:     c.Name,
		Email:    c.Email,
		Avatar:   c.Avatar,
	}
}
