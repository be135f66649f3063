package respond

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/admin-console/internal/apperror"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "configuration lists every problem",
			err:        apperror.Configuration([]string{"GITHUB_CLIENT_ID is not set", "JWT_SECRET is not set"}),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"OAuth configuration error","details":["GITHUB_CLIENT_ID is not set","JWT_SECRET is not set"]}`,
		},
		{
			name:       "unauthorized",
			err:        apperror.Unauthorized("Authentication required"),
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Authentication required","authenticated":false}`,
		},
		{
			name:       "forbidden",
			err:        apperror.Forbidden("Access denied"),
			wantStatus: http.StatusForbidden,
			wantBody:   `{"error":"Access denied"}`,
		},
		{
			name:       "wrapped sentinel still matches",
			err:        fmt.Errorf("guard: %w", apperror.Forbidden("Access denied")),
			wantStatus: http.StatusForbidden,
			wantBody:   `{"error":"Access denied"}`,
		},
		{
			name:       "unmapped app error hides its message",
			err:        apperror.TokenExchange("bad_verification_code"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Internal server error"}`,
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			Error(rec, testLogger(), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestJSON(t *testing.T) {
	t.Run("encodes the body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		JSON(rec, testLogger(), http.StatusOK, map[string]string{"status": "ok"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("nil body writes only the status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		JSON(rec, testLogger(), http.StatusNoContent, nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}
