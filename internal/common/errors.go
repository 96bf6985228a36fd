// Package common defines shared constants and sentinel errors used across
// the MazGPT client. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Auth errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSessionExpired     = errors.New("session expired")

	// Two-factor errors.
	ErrTwoFactorRequired = errors.New("two-factor verification required")
	ErrInvalidCode       = errors.New("invalid 2fa code")

	// Local validation errors (never sent to the backend).
	ErrValidation = errors.New("validation error")
)
