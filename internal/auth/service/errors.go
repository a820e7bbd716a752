package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for the auth service; handlers map them to HTTP and gRPC codes.
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountBlocked     = errors.New("account is blocked")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateAccount   = errors.New("email already registered")
	ErrValidation         = errors.New("validation failed")
	ErrTokenInvalid       = errors.New("invalid or expired token")
	ErrStoreUnavailable   = errors.New("account store unavailable")
)

// LoginFailure is returned for a wrong password. It matches ErrInvalidCredentials via errors.Is.
type LoginFailure struct {
	// Remaining is how many more failures the account tolerates; 0 means it is now blocked.
	Remaining int
	// Locked is true when this failure reached the lockout threshold.
	Locked bool
}

func (e *LoginFailure) Error() string {
	if e.Locked {
		return "invalid credentials; account is now blocked"
	}
	return fmt.Sprintf("invalid credentials; %d attempt(s) remaining", e.Remaining)
}

func (e *LoginFailure) Unwrap() error { return ErrInvalidCredentials }

// ValidationError names the offending field. It matches ErrValidation via errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
