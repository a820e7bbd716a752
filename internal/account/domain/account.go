package domain

import (
	"errors"
	"strings"
	"time"
)

// Account is a registered shopper. Email is the login key and is stored normalised.
type Account struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string
	FailedAttempts int
	Blocked        bool
	BlockedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Profile is the public view of an account returned by register, login, and /me.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LoginState is the attempt counter and block flag after an atomic update.
type LoginState struct {
	Attempts int
	Blocked  bool
}

// NormalizeEmail trims and lower-cases an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Profile returns the public fields of a.
func (a *Account) Profile() Profile {
	return Profile{ID: a.ID, Name: a.Name, Email: a.Email}
}

// LockoutExpired reports whether a block set at BlockedAt has outlived d. A zero d
// means blocks never expire.
func (a *Account) LockoutExpired(now time.Time, d time.Duration) bool {
	if !a.Blocked || d <= 0 || a.BlockedAt == nil {
		return false
	}
	return !now.Before(a.BlockedAt.Add(d))
}

// Validate validates the account for persistence. Returns the first failure.
func (a *Account) Validate() error {
	if a.ID == "" {
		return errors.New("id is required")
	}
	if a.Email == "" {
		return errors.New("email is required")
	}
	if a.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if a.FailedAttempts < 0 {
		return errors.New("failed attempts must not be negative")
	}
	return nil
}
