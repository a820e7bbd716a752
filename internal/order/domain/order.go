// Package domain holds order types.
package domain

import (
	"math"
	"time"
)

// StatusPaid is recorded for every checkout; payment is simulated.
const StatusPaid = "PAID"

// Item is one order line. Price is the unit price in whole pesos.
type Item struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// Subtotal is Price × Quantity. ok is false when the product does not fit in int64
// or either factor is not positive.
func (i Item) Subtotal() (sub int64, ok bool) {
	if i.Price <= 0 || i.Quantity <= 0 {
		return 0, false
	}
	q := int64(i.Quantity)
	if i.Price > math.MaxInt64/q {
		return 0, false
	}
	return i.Price * q, true
}

// Order is a completed checkout owned by UserEmail.
type Order struct {
	ID          string    `json:"id"`
	UserEmail   string    `json:"user_email"`
	TotalAmount int64     `json:"total_amount"`
	Items       []Item    `json:"items"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Total sums the item subtotals. ok is false if any subtotal or the running sum
// overflows.
func Total(items []Item) (sum int64, ok bool) {
	for _, it := range items {
		sub, fits := it.Subtotal()
		if !fits || sum > math.MaxInt64-sub {
			return 0, false
		}
		sum += sub
	}
	return sum, true
}
