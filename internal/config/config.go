// Package config loads the application settings from the environment.
//
// Config is built once in main and passed by value into every constructor
// that needs it. Nothing in the repo reads os.Getenv after startup.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// InsecureJWTSecret is the shipped placeholder for JWT_SECRET. A login flow
// refuses to start while it is still in place.
const InsecureJWTSecret = "change-me-in-production"

// MinJWTSecretLength is the shortest signing secret Validate accepts.
const MinJWTSecretLength = 16

// CallbackPath is where the provider sends the browser back to.
const CallbackPath = "/api/auth/callback"

type Config struct {
	Port        int    `env:"PORT"      envDefault:"8080"`
	SiteURL     string `env:"SITE_URL"  envDefault:"http://localhost:8080"`
	Environment string `env:"APP_ENV"   envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	GitHubClientID     string        `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string        `env:"GITHUB_CLIENT_SECRET"`
	OAuthHTTPTimeout   time.Duration `env:"OAUTH_HTTP_TIMEOUT" envDefault:"10s"`

	JWTSecret string `env:"JWT_SECRET"     envDefault:"change-me-in-production"`
	// SessionLifetimeSeconds is the token lifetime and the auth_token Max-Age.
	SessionLifetimeSeconds int `env:"JWT_EXPIRES_IN" envDefault:"86400"`

	AdminUsernames []string `env:"ADMIN_USERNAMES" envSeparator:","`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load parses the process environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	cfg.AdminUsernames = trimCSV(cfg.AdminUsernames)
	return cfg, nil
}

// IsProduction reports whether cookies must carry the Secure attribute.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// CallbackURL is the redirect URI registered with the OAuth provider.
func (c Config) CallbackURL() string {
	return strings.TrimRight(c.SiteURL, "/") + CallbackPath
}

// SessionLifetime returns the configured token lifetime, falling back to one
// day for non-positive values.
func (c Config) SessionLifetime() time.Duration {
	if c.SessionLifetimeSeconds <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.SessionLifetimeSeconds) * time.Second
}

// Validate lists every problem that would make a login flow fail. An empty
// slice means the OAuth and signing settings are usable.
func (c Config) Validate() []string {
	var problems []string

	if strings.TrimSpace(c.GitHubClientID) == "" {
		problems = append(problems, "GITHUB_CLIENT_ID is not set")
	}
	if strings.TrimSpace(c.GitHubClientSecret) == "" {
		problems = append(problems, "GITHUB_CLIENT_SECRET is not set")
	}

	switch secret := strings.TrimSpace(c.JWTSecret); {
	case secret == "":
		problems = append(problems, "JWT_SECRET is not set")
	case secret == InsecureJWTSecret:
		problems = append(problems, "JWT_SECRET is still set to the insecure default value")
	case len(secret) < MinJWTSecretLength:
		problems = append(problems, fmt.Sprintf("JWT_SECRET must be at least %d characters", MinJWTSecretLength))
	}

	return problems
}

// SigningSecret is the HMAC key handed to the token service. A secret that
// Validate rejects comes back empty, so tokens signed with the public default
// are never accepted.
func (c Config) SigningSecret() string {
	secret := strings.TrimSpace(c.JWTSecret)
	if secret == InsecureJWTSecret || len(secret) < MinJWTSecretLength {
		return ""
	}
	return secret
}

// SlogLevel maps LOG_LEVEL onto a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// trimCSV removes empty entries from a string slice.
func trimCSV(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			result = append(result, v)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
