package repository

import (
	"context"
	"database/sql"

	"craft-beer-store/backend/internal/audit/domain"
)

const (
	insertAuditLog = `INSERT INTO audit_logs (id, email, action, resource, ip, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	listAuditLogs = `SELECT id, email, action, resource, ip, metadata, created_at
FROM audit_logs
WHERE ($1::text = '' OR email = $1)
ORDER BY created_at DESC
LIMIT $2`
)

// PostgresRepository stores audit logs in the audit_logs table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx, insertAuditLog,
		a.ID, a.Email, a.Action, a.Resource, a.IP, a.Metadata, a.CreatedAt)
	return err
}

// ListByEmail returns at most limit entries for email, newest first.
func (r *PostgresRepository) ListByEmail(ctx context.Context, email string, limit int) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx, listAuditLogs, email, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var a domain.AuditLog
		if err := rows.Scan(&a.ID, &a.Email, &a.Action, &a.Resource, &a.IP, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
