package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"craft-beer-store/backend/internal/order/domain"
)

const (
	insertOrder = `INSERT INTO orders (id, user_email, total_amount, items, status, created_at)
VALUES ($1, $2, $3, $4::jsonb, $5, $6)`

	listOrdersByEmail = `SELECT id, user_email, total_amount, items, status, created_at
FROM orders
WHERE user_email = $1
ORDER BY created_at DESC, id
LIMIT $2`
)

// PostgresRepository stores orders with their items as JSONB.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an order repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, o *domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	_, err = r.db.ExecContext(ctx, insertOrder,
		o.ID, o.UserEmail, o.TotalAmount, string(items), o.Status, o.CreatedAt)
	return err
}

func (r *PostgresRepository) ListByEmail(ctx context.Context, email string) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, listOrdersByEmail, email, MaxList)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Order, 0)
	for rows.Next() {
		var (
			o   domain.Order
			raw []byte
		)
		if err := rows.Scan(&o.ID, &o.UserEmail, &o.TotalAmount, &raw, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &o.Items); err != nil {
			return nil, fmt.Errorf("order %s items: %w", o.ID, err)
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}
