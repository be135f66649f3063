// Package respond writes the JSON responses shared by the handlers and the
// auth guards.
//
// Error is the one place apperror sentinels become HTTP status codes. The
// callback endpoint answers with redirects instead, so its failures never
// come through here.
//
// Error bodies share one shape:
//
//	{"error": "Access denied"}
//	{"error": "Authentication required", "authenticated": false}
//	{"error": "OAuth configuration error", "details": ["JWT_SECRET is not set"]}
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/admin-console/internal/apperror"
)

// ErrorResponse is the error format returned by the JSON endpoints.
type ErrorResponse struct {
	Error         string   `json:"error"`
	Authenticated *bool    `json:"authenticated,omitempty"`
	Details       []string `json:"details,omitempty"`
}

// JSON sends data as JSON with the given status code. Headers must be set
// before WriteHeader; anything after it is ignored by net/http.
func JSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; all we can do is log.
		logger.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// Error maps a domain error to an HTTP status and body.
//
// Unauthorized and Forbidden errors carry a client-facing message. Anything
// unknown becomes a bare 500: internal detail goes to the log, never to the
// client.
func Error(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		logger.Error("unhandled error", slog.String("error", err.Error()))
		JSON(w, logger, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	switch {
	case errors.Is(err, apperror.ErrConfiguration):
		JSON(w, logger, http.StatusInternalServerError, ErrorResponse{
			Error:   "OAuth configuration error",
			Details: appErr.Details,
		})
	case errors.Is(err, apperror.ErrUnauthorized):
		authenticated := false
		JSON(w, logger, http.StatusUnauthorized, ErrorResponse{
			Error:         appErr.Message,
			Authenticated: &authenticated,
		})
	case errors.Is(err, apperror.ErrForbidden):
		JSON(w, logger, http.StatusForbidden, ErrorResponse{Error: appErr.Message})
	default:
		logger.Error("unhandled error", slog.String("error", err.Error()))
		JSON(w, logger, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}
