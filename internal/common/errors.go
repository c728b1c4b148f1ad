// Package common defines shared constants and sentinel errors used across
// the store, service and transport layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors (malformed npub, token or missing fields).
	ErrInvalidInput = errors.New("invalid input")

	// Signed event did not pass the signature check.
	ErrSignatureInvalid = errors.New("invalid event signature")

	// Verification lifecycle errors.
	ErrAlreadyUsed      = errors.New("token has already been used")
	ErrAlreadyFinalized = errors.New("verification has already been finalized")
	ErrNotFinalized     = errors.New("verification has not been finalized")

	// A verified record without a note. Always a server-side fault.
	ErrInconsistent = errors.New("inconsistent verification state")

	// Auth errors (invalid or malformed session token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
