package repository

import (
	"context"
	"sort"
	"sync"

	"craft-beer-store/backend/internal/order/domain"
)

// MemoryRepository keeps orders in process memory.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders []domain.Order
}

// NewMemoryRepository returns an empty in-memory order repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *o
	c.Items = append([]domain.Item(nil), o.Items...)
	r.orders = append(r.orders, c)
	return nil
}

func (r *MemoryRepository) ListByEmail(_ context.Context, email string) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Order, 0)
	for i := range r.orders {
		if r.orders[i].UserEmail == email {
			o := r.orders[i]
			o.Items = append([]domain.Item(nil), o.Items...)
			out = append(out, &o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > MaxList {
		out = out[:MaxList]
	}
	return out, nil
}
