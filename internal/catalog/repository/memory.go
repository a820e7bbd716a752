package repository

import (
	"context"
	"sync"

	"craft-beer-store/backend/internal/catalog/domain"
)

// MemoryRepository keeps products in insertion order in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	products []domain.Product
}

// NewMemoryRepository returns an empty in-memory product repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) List(_ context.Context, f domain.Filter) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Product, 0)
	for i := range r.products {
		if len(out) == MaxList {
			break
		}
		if f.Matches(&r.products[i]) {
			p := r.products[i]
			out = append(out, &p)
		}
	}
	return out, nil
}

func (r *MemoryRepository) Create(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = append(r.products, *p)
	return nil
}

func (r *MemoryRepository) Count(context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.products), nil
}
