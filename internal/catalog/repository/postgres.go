package repository

import (
	"context"
	"database/sql"
	"strings"

	"craft-beer-store/backend/internal/catalog/domain"
)

const (
	listProducts = `SELECT id, name, type, price, description, image, alcohol, created_at
FROM products
WHERE ($1::text = '' OR type = $1)
  AND ($2::bigint <= 0 OR price <= $2)
  AND ($3::text = '' OR name ILIKE $3 OR description ILIKE $3)
ORDER BY created_at, id
LIMIT $4`

	insertProduct = `INSERT INTO products (id, name, type, price, description, image, alcohol, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	countProducts = `SELECT count(*) FROM products`
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PostgresRepository stores products in the products table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a product repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, f domain.Filter) ([]*domain.Product, error) {
	pattern := ""
	if f.Search != "" {
		pattern = "%" + likeEscaper.Replace(f.Search) + "%"
	}
	rows, err := r.db.QueryContext(ctx, listProducts, f.Type, f.MaxPrice, pattern, MaxList)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &p.Price, &p.Description, &p.Image, &p.Alcohol, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx, insertProduct,
		p.ID, p.Name, p.Type, p.Price, p.Description, p.Image, p.Alcohol, p.CreatedAt)
	return err
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countProducts).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
