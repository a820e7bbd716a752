package repository

import (
	"context"
	"sync"
	"time"

	"craft-beer-store/backend/internal/account/domain"
)

// MemoryRepository keeps accounts in process memory. Each operation holds the mutex for
// its whole read-modify-write, giving the same atomicity as the SQL statements.
type MemoryRepository struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	now      func() time.Time
}

// NewMemoryRepository returns an empty in-memory account repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts: make(map[string]*domain.Account),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[email]
	if !ok {
		return nil, nil
	}
	return cloneAccount(a), nil
}

func (r *MemoryRepository) Create(_ context.Context, a *domain.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[a.Email]; exists {
		return ErrDuplicateEmail
	}
	r.accounts[a.Email] = cloneAccount(a)
	return nil
}

func (r *MemoryRepository) RecordFailedLogin(_ context.Context, email string, threshold int) (*domain.LoginState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[email]
	if !ok {
		return nil, nil
	}
	now := r.now()
	a.FailedAttempts++
	if !a.Blocked && a.FailedAttempts >= threshold {
		a.Blocked = true
		a.BlockedAt = &now
	}
	a.UpdatedAt = now
	return &domain.LoginState{Attempts: a.FailedAttempts, Blocked: a.Blocked}, nil
}

func (r *MemoryRepository) ResetFailedLogins(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[email]
	if !ok || a.Blocked {
		return false, nil
	}
	a.FailedAttempts = 0
	a.UpdatedAt = r.now()
	return true, nil
}

func (r *MemoryRepository) Unblock(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[email]
	if !ok {
		return false, nil
	}
	clearBlock(a, r.now())
	return true, nil
}

func (r *MemoryRepository) UnblockIfExpired(_ context.Context, email string, blockedBefore time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[email]
	if !ok || !a.Blocked || a.BlockedAt == nil || a.BlockedAt.After(blockedBefore) {
		return false, nil
	}
	clearBlock(a, r.now())
	return true, nil
}

func clearBlock(a *domain.Account, now time.Time) {
	a.FailedAttempts = 0
	a.Blocked = false
	a.BlockedAt = nil
	a.UpdatedAt = now
}

func cloneAccount(a *domain.Account) *domain.Account {
	cp := *a
	if a.BlockedAt != nil {
		t := *a.BlockedAt
		cp.BlockedAt = &t
	}
	return &cp
}
