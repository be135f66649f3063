package handler

// CALLBACK ERRORS:
// JSON endpoints answer errors through respond.Error. The callback endpoint
// answers with redirects instead, so its failures map to the short codes
// below and land on the home page as /?error=<code>.

import (
	"errors"

	"github.com/sakif/admin-console/internal/apperror"
)

// Callback failure codes, sent to the home page as ?error=<code>.
const (
	errCodeStateMismatch  = "state_mismatch"
	errCodeMissingCode    = "missing_code"
	errCodeTokenExchange  = "token_exchange_failed"
	errCodeUserFetch      = "user_fetch_failed"
	errCodeAuthentication = "authentication_failed"
)

// callbackErrorCode reduces a login failure to the coarse code shown to the
// browser.
func callbackErrorCode(err error) string {
	switch {
	case errors.Is(err, apperror.ErrStateMismatch):
		return errCodeStateMismatch
	case errors.Is(err, apperror.ErrValidation):
		return errCodeMissingCode
	case errors.Is(err, apperror.ErrTokenExchange):
		return errCodeTokenExchange
	case errors.Is(err, apperror.ErrUserFetch):
		return errCodeUserFetch
	default:
		return errCodeAuthentication
	}
}
