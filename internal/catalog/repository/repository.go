package repository

import (
	"context"

	"craft-beer-store/backend/internal/catalog/domain"
)

// MaxList caps every listing, matching the storefront's page size.
const MaxList = 100

// Repository defines persistence for products.
type Repository interface {
	// List returns at most MaxList products matching f, oldest first.
	List(ctx context.Context, f domain.Filter) ([]*domain.Product, error)
	// Create inserts p. p.ID must be set.
	Create(ctx context.Context, p *domain.Product) error
	// Count returns the number of products.
	Count(ctx context.Context) (int, error)
}
