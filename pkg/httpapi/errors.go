package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/authguard/pkg/backupcode"
	"github.com/dmitrymomot/authguard/pkg/login"
	"github.com/dmitrymomot/authguard/pkg/session"
	"github.com/dmitrymomot/authguard/pkg/twofactor"
	"github.com/dmitrymomot/authguard/pkg/validator"
)

var (
	ErrBadRequest   = errors.New("malformed request body")
	ErrUnauthorized = errors.New("authentication required")
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("too many requests")
)

// apiError is the status and machine-readable code an error maps to.
type apiError struct {
	status  int
	code    string
	message string
}

// classify maps domain errors onto HTTP semantics. Unknown errors become a
// generic 500 so internal details never reach the client.
func classify(err error) apiError {
	switch {
	case validator.IsValidationError(err):
		return apiError{http.StatusUnprocessableEntity, "validation_error", "validation failed"}
	case errors.Is(err, ErrRateLimited):
		return apiError{http.StatusTooManyRequests, "rate_limited", ErrRateLimited.Error()}
	case errors.Is(err, ErrBadRequest):
		return apiError{http.StatusBadRequest, "bad_request", ErrBadRequest.Error()}
	case errors.Is(err, login.ErrLocked):
		return apiError{http.StatusLocked, "locked", login.ErrLocked.Error()}
	case errors.Is(err, login.ErrInvalidCredentials):
		return apiError{http.StatusUnauthorized, "invalid_credentials", login.ErrInvalidCredentials.Error()}
	case errors.Is(err, login.ErrInvalidCode), errors.Is(err, twofactor.ErrInvalidCode):
		return apiError{http.StatusUnauthorized, "invalid_code", login.ErrInvalidCode.Error()}
	case errors.Is(err, login.ErrInvalidPendingToken):
		return apiError{http.StatusUnauthorized, "invalid_pending_token", login.ErrInvalidPendingToken.Error()}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, session.ErrInvalidToken),
		errors.Is(err, session.ErrExpiredToken),
		errors.Is(err, session.ErrWrongPurpose):
		return apiError{http.StatusUnauthorized, "unauthorized", ErrUnauthorized.Error()}
	case errors.Is(err, backupcode.ErrDeliveryFailed):
		return apiError{http.StatusServiceUnavailable, "delivery_failed", "backup code could not be delivered, try again later"}
	case errors.Is(err, twofactor.ErrEmailBackupNotConfigured):
		return apiError{http.StatusConflict, "backup_not_configured", twofactor.ErrEmailBackupNotConfigured.Error()}
	case errors.Is(err, twofactor.ErrInvalidBackupEmail):
		return apiError{http.StatusUnprocessableEntity, "invalid_backup_email", twofactor.ErrInvalidBackupEmail.Error()}
	case errors.Is(err, login.ErrTwoFactorDisabled), errors.Is(err, ErrNotFound):
		return apiError{http.StatusNotFound, "not_found", http.StatusText(http.StatusNotFound)}
	default:
		return apiError{http.StatusInternalServerError, "internal_error", http.StatusText(http.StatusInternalServerError)}
	}
}
