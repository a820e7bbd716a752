package repository

import (
	"context"

	"craft-beer-store/backend/internal/audit/domain"
)

// MaxList caps ListByEmail results.
const MaxList = 100

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	// ListByEmail returns entries for email newest first. An empty email lists all entries.
	ListByEmail(ctx context.Context, email string, limit int) ([]*domain.AuditLog, error)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxList {
		return MaxList
	}
	return limit
}
