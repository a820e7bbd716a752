package repository

import (
	"context"
	"errors"
	"time"

	"craft-beer-store/backend/internal/account/domain"
)

// ErrDuplicateEmail is returned by Create when the email is already registered.
var ErrDuplicateEmail = errors.New("account: email already registered")

// Repository defines persistence for accounts. Lookups return nil, nil for a missing
// email. The counter operations are single atomic updates keyed by email.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	// Create inserts a new account. Returns ErrDuplicateEmail on a unique violation.
	Create(ctx context.Context, a *domain.Account) error
	// RecordFailedLogin increments the failed-attempt counter and sets blocked once the new
	// count reaches threshold, returning the resulting state. Returns nil, nil if no account matches.
	RecordFailedLogin(ctx context.Context, email string, threshold int) (*domain.LoginState, error)
	// ResetFailedLogins zeroes the counter only while the account is unblocked. Reports
	// false when the account is blocked or missing.
	ResetFailedLogins(ctx context.Context, email string) (bool, error)
	// Unblock clears the block and the counter unconditionally. Reports false if no account matches.
	Unblock(ctx context.Context, email string) (bool, error)
	// UnblockIfExpired clears the block only when it was set at or before blockedBefore.
	UnblockIfExpired(ctx context.Context, email string, blockedBefore time.Time) (bool, error)
}
