// Package server is the composition root: it builds every component from
// config.Config, mounts the routes and runs the HTTP server.
//
// DEPENDENCY GRAPH (built once in New):
//
//	config.Config
//	  ├─ auth.TokenService  ← JWT secret, lifetime
//	  ├─ auth.GitHubProvider ← client id/secret, callback URL, timeout
//	  ├─ auth.CookieFactory ← Secure in production
//	  ├─ auth.Resolver → auth.Guard ← admin allow-list
//	  ├─ service.AuthService ← provider + tokens
//	  └─ handler.AuthHandler, handler.PageHandler
//
// Every component is immutable after New, so one instance serves all
// requests concurrently.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sakif/admin-console/internal/auth"
	"github.com/sakif/admin-console/internal/config"
	"github.com/sakif/admin-console/internal/handler"
	"github.com/sakif/admin-console/internal/middleware"
	"github.com/sakif/admin-console/internal/service"
)

// ServiceName identifies the server in traces.
const ServiceName = "admin-console"

// LoginPath starts the OAuth flow; guards redirect anonymous browsers here.
const LoginPath = "/api/auth/github"

// shutdownTimeout bounds how long in-flight requests may take to finish.
const shutdownTimeout = 30 * time.Second

// Server owns the router and the configuration it was built from.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
}

// New wires all components from cfg. Configuration problems do not stop the
// server: they are logged here and reported by the login endpoint.
func New(cfg config.Config, logger *slog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}

	problems := cfg.Validate()
	for _, p := range problems {
		logger.Warn("configuration problem", slog.String("problem", p))
	}

	tokens := auth.NewTokenService(cfg.SigningSecret(), cfg.SessionLifetime())
	provider := auth.NewGitHubProvider(auth.ProviderConfig{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		RedirectURL:  cfg.CallbackURL(),
		Timeout:      cfg.OAuthHTTPTimeout,
	})
	cookies := auth.NewCookieFactory(cfg.IsProduction())
	guard := auth.NewGuard(auth.NewResolver(tokens), LoginPath, logger)
	admins := auth.NewAllowList(cfg.AdminUsernames...)

	authService := service.NewAuthService(provider, tokens, nil, logger)
	authHandler := handler.NewAuthHandler(provider, authService, cookies, problems, logger)
	pages := handler.NewPageHandler(logger)

	s.routes(guard, admins, authHandler, pages)
	return s
}

// routes mounts the middleware stack and every endpoint.
//
// ROUTE STRUCTURE:
//
//	GET      /healthz            → liveness probe
//	GET      /api/auth/github    → start OAuth (public)
//	GET      /api/auth/callback  → finish OAuth (public)
//	GET      /api/auth/me        → current identity (OptionalAuth, 401 JSON)
//	GET/POST /api/auth/logout    → clear the session (public)
//	GET      /api/admin/session  → RequireAPIAuth + RequireAdmin
//	GET      /                   → OptionalAuth
//	GET      /dashboard          → RequireAuth
//	GET      /admin              → RequireAdmin
//
// MIDDLEWARE ORDER: RequestID first so the logger and handlers see the id;
// Recoverer innermost of the global stack so a panic is still logged as a 500.
func (s *Server) routes(guard *auth.Guard, admins auth.AdminPolicy, authHandler *handler.AuthHandler, pages *handler.PageHandler) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", pages.HandleHealth)

	s.router.Route("/api/auth", func(r chi.Router) {
		r.Get("/github", authHandler.HandleLogin)
		r.Get("/callback", authHandler.HandleCallback)
		r.With(guard.OptionalAuth).Get("/me", authHandler.HandleMe)
		r.Get("/logout", authHandler.HandleLogout)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api/admin", func(r chi.Router) {
		r.Use(guard.RequireAPIAuth)
		r.Use(guard.RequireAdmin(admins))
		r.Get("/session", pages.HandleAdminSession)
	})

	s.router.With(guard.OptionalAuth).Get("/", pages.HandleHome)
	s.router.With(guard.RequireAuth).Get("/dashboard", pages.HandleDashboard)
	s.router.With(guard.RequireAdmin(admins)).Get("/admin", pages.HandleAdmin)
}

// Handler returns the router wrapped in OpenTelemetry instrumentation.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, ServiceName,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Start runs the server until SIGINT or SIGTERM, then shuts down
// gracefully: no new connections, in-flight requests get shutdownTimeout
// to finish.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", s.config.SiteURL),
			slog.String("environment", s.config.Environment),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
