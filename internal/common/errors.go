// Package common defines shared constants and sentinel errors used across
// the store, service and transport layers of GophJournal. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")

	// Coordinator error kinds.
	ErrAccountNotFound     = errors.New("account not found")
	ErrEntryNotFound       = errors.New("entry not found")
	ErrEntryNotOwned       = errors.New("entry not owned by account")
	ErrPersistenceFailure  = errors.New("persistence failure")
	ErrUniquenessViolation = errors.New("username already taken")

	// Input errors.
	ErrValidation = errors.New("validation error")

	// Service-level errors (auth flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")

	// Auth errors (invalid, malformed or expired token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
