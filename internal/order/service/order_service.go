// Package service implements checkout and order history.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"craft-beer-store/backend/internal/order/domain"
)

// Sentinel errors for the order service.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNoOwner          = errors.New("order owner is required")
	ErrStoreUnavailable = errors.New("order store unavailable")
)

// ValidationError names the offending field. It matches ErrValidation via errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// OrderRepo is the order persistence the service needs.
type OrderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	ListByEmail(ctx context.Context, email string) ([]*domain.Order, error)
}

// OrderService records checkouts for authenticated accounts.
type OrderService struct {
	orders  OrderRepo
	log     zerolog.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewOrderService returns an OrderService.
func NewOrderService(orders OrderRepo, log zerolog.Logger, storeTimeout time.Duration) *OrderService {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &OrderService{orders: orders, log: log, timeout: storeTimeout, now: time.Now}
}

// Checkout records a paid order for email. The owner always comes from the
// authenticated identity, never from the request body.
func (s *OrderService) Checkout(ctx context.Context, email string, items []domain.Item, totalAmount int64) (*domain.Order, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrNoOwner
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}
	want, ok := domain.Total(items)
	if !ok {
		return nil, &ValidationError{Field: "total_amount", Message: "sum of item subtotals is too large"}
	}
	if totalAmount != want {
		return nil, &ValidationError{Field: "total_amount", Message: fmt.Sprintf("must equal the sum of item subtotals (%d)", want)}
	}

	o := &domain.Order{
		ID:          uuid.New().String(),
		UserEmail:   email,
		TotalAmount: totalAmount,
		Items:       items,
		Status:      domain.StatusPaid,
		CreatedAt:   s.now().UTC(),
	}
	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.orders.Create(sctx, o); err != nil {
		s.log.Error().Err(err).Msg("create order failed")
		return nil, fmt.Errorf("create order: %w", ErrStoreUnavailable)
	}
	s.log.Info().Str("order_id", o.ID).Int64("total_amount", o.TotalAmount).Int("items", len(items)).Msg("order recorded")
	return o, nil
}

// ListMine returns email's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, email string) ([]*domain.Order, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrNoOwner
	}
	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	orders, err := s.orders.ListByEmail(sctx, email)
	if err != nil {
		s.log.Error().Err(err).Msg("list orders failed")
		return nil, fmt.Errorf("list orders: %w", ErrStoreUnavailable)
	}
	return orders, nil
}

func validateItems(items []domain.Item) error {
	if len(items) == 0 {
		return &ValidationError{Field: "items", Message: "must not be empty"}
	}
	for i, it := range items {
		field := fmt.Sprintf("items[%d]", i)
		switch {
		case strings.TrimSpace(it.ProductID) == "":
			return &ValidationError{Field: field + ".product_id", Message: "is required"}
		case it.Price <= 0:
			return &ValidationError{Field: field + ".price", Message: "must be greater than 0"}
		case it.Quantity < 1:
			return &ValidationError{Field: field + ".quantity", Message: "must be at least 1"}
		}
		if _, ok := it.Subtotal(); !ok {
			return &ValidationError{Field: field, Message: "price * quantity is too large"}
		}
	}
	return nil
}
