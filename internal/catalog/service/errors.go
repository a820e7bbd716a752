package service

import "errors"

// Sentinel errors for the catalog service.
var (
	ErrValidation       = errors.New("validation failed")
	ErrStoreUnavailable = errors.New("catalog store unavailable")
)

// ValidationError names the offending field. It matches ErrValidation via errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
