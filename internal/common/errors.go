// Package common defines shared constants and sentinel errors used across
// the Totymark server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound        = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already registered")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Stored credential is not a recognizable password hash.
	ErrMalformedHash = errors.New("malformed password hash")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")

	// Outbound notification errors.
	ErrMailerDisabled = errors.New("mailer disabled")
	ErrDeliveryFailed = errors.New("delivery failed")
)

// ValidationError carries a client-safe reason for rejected input. It
// matches ErrorValidation under errors.Is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation error: " + e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrorValidation }
