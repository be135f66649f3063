// Package apperror defines the error taxonomy shared by the auth pipeline.
//
// Domain code wraps one of the sentinels below; the HTTP layer maps them to
// coarse redirect codes or JSON bodies with errors.Is. The detailed message
// is for logs only.
package apperror

import (
	"errors"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrForbidden     = errors.New("forbidden")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrConfiguration = errors.New("configuration error")
	ErrTokenExchange = errors.New("token exchange failed")
	ErrUserFetch     = errors.New("user fetch failed")
	ErrStateMismatch = errors.New("state mismatch")
)

type AppError struct {
	Err     error    // sentinel this error belongs to
	Message string   // human-readable, safe to log
	Field   string   // optional: field causing the error
	Details []string // optional: itemised problems (configuration errors)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Forbidden reports an authenticated caller that lacks permission. message
// is shown to the client with the 403.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Configuration reports every problem found in the OAuth/JWT settings.
func Configuration(details []string) *AppError {
	return &AppError{
		Err:     ErrConfiguration,
		Message: "invalid configuration: " + strings.Join(details, "; "),
		Details: details,
	}
}

// TokenExchange wraps a failed authorization-code exchange. detail is the
// provider's error_description when it sent one.
func TokenExchange(detail string) *AppError {
	return &AppError{
		Err:     ErrTokenExchange,
		Message: "token exchange failed: " + detail,
	}
}

// UserFetch wraps a failed call to the provider's user endpoint.
func UserFetch(detail string) *AppError {
	return &AppError{
		Err:     ErrUserFetch,
		Message: "user fetch failed: " + detail,
	}
}

func StateMismatch() *AppError {
	return &AppError{
		Err:     ErrStateMismatch,
		Message: "OAuth state parameter does not match the state cookie",
	}
}

// Unauthorized reports a request that carries no valid session. message is
// shown to the client with the 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
