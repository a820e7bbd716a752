package repository

import (
	"context"

	"craft-beer-store/backend/internal/order/domain"
)

// MaxList caps ListByEmail.
const MaxList = 100

// Repository defines persistence for orders.
type Repository interface {
	Create(ctx context.Context, o *domain.Order) error
	// ListByEmail returns at most MaxList orders owned by email, newest first.
	ListByEmail(ctx context.Context, email string) ([]*domain.Order, error)
}
