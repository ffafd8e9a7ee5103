package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds for the auth subsystem. Handlers map these to HTTP statuses and
// stable message keys; services wrap them with context via fmt.Errorf + %w.
var (
	ErrNotFound           = errors.New("not found")
	ErrCredentialsInvalid = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenMismatch      = errors.New("token mismatch")
	ErrPasswordMismatch   = errors.New("password mismatch")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbiddenRole      = errors.New("role not assignable")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPersistence        = errors.New("persistence failure")
)

// Persistence wraps a storage-layer error so callers can match ErrPersistence
// while the root cause stays available for server-side logging.
func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}

// Status maps an error kind to its HTTP status code. Unknown errors are
// treated as persistence-level failures and never leak detail.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrCredentialsInvalid),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenMismatch),
		errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccountLocked),
		errors.Is(err, ErrAccountDisabled),
		errors.Is(err, ErrForbiddenRole):
		return http.StatusForbidden
	case errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// MessageKey returns the stable, localizable key for an error kind. The i18n
// catalog rendering human text from these keys lives outside this subsystem.
func MessageKey(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "error.not_found"
	case errors.Is(err, ErrCredentialsInvalid):
		return "error.credentials_invalid"
	case errors.Is(err, ErrAccountLocked):
		return "error.account_locked"
	case errors.Is(err, ErrAccountDisabled):
		return "error.account_disabled"
	case errors.Is(err, ErrTokenInvalid):
		return "error.token_invalid"
	case errors.Is(err, ErrTokenExpired):
		return "error.token_expired"
	case errors.Is(err, ErrTokenMismatch):
		return "error.token_mismatch"
	case errors.Is(err, ErrPasswordMismatch):
		return "error.password_mismatch"
	case errors.Is(err, ErrUnauthorized):
		return "error.unauthorized"
	case errors.Is(err, ErrForbiddenRole):
		return "error.role_not_assignable"
	case errors.Is(err, ErrAlreadyExists):
		return "error.already_exists"
	case errors.Is(err, ErrInvalidInput):
		return "error.invalid_input"
	default:
		return "error.internal"
	}
}
