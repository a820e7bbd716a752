package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"craft-beer-store/backend/internal/account/domain"
)

const uniqueViolation = "23505"

const (
	selectAccountByEmail = `SELECT id, name, email, password_hash, failed_attempts, blocked, blocked_at, created_at, updated_at
FROM accounts WHERE email = $1`

	insertAccount = `INSERT INTO accounts (id, name, email, password_hash, failed_attempts, blocked, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	recordFailedLogin = `UPDATE accounts
SET failed_attempts = failed_attempts + 1,
    blocked = blocked OR failed_attempts + 1 >= $2,
    blocked_at = CASE WHEN NOT blocked AND failed_attempts + 1 >= $2 THEN $3 ELSE blocked_at END,
    updated_at = $3
WHERE email = $1
RETURNING failed_attempts, blocked`

	resetFailedLogins = `UPDATE accounts SET failed_attempts = 0, updated_at = $2
WHERE email = $1 AND NOT blocked`

	unblockAccount = `UPDATE accounts SET failed_attempts = 0, blocked = FALSE, blocked_at = NULL, updated_at = $2
WHERE email = $1`

	unblockExpiredAccount = `UPDATE accounts SET failed_attempts = 0, blocked = FALSE, blocked_at = NULL, updated_at = $2
WHERE email = $1 AND blocked AND blocked_at IS NOT NULL AND blocked_at <= $3`
)

// PostgresRepository persists accounts in the accounts table.
type PostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresRepository returns an account repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// GetByEmail returns the account with the given email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var (
		a         domain.Account
		blockedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, selectAccountByEmail, email).Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.FailedAttempts, &a.Blocked, &blockedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if blockedAt.Valid {
		t := blockedAt.Time
		a.BlockedAt = &t
	}
	return &a, nil
}

// Create persists the account. The account must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, insertAccount,
		a.ID, a.Name, a.Email, a.PasswordHash, a.FailedAttempts, a.Blocked, a.CreatedAt, a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

// RecordFailedLogin increments failed_attempts and sets blocked in one UPDATE ... RETURNING.
func (r *PostgresRepository) RecordFailedLogin(ctx context.Context, email string, threshold int) (*domain.LoginState, error) {
	var st domain.LoginState
	err := r.db.QueryRowContext(ctx, recordFailedLogin, email, threshold, r.now()).Scan(&st.Attempts, &st.Blocked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

// ResetFailedLogins zeroes failed_attempts for an unblocked account.
func (r *PostgresRepository) ResetFailedLogins(ctx context.Context, email string) (bool, error) {
	return r.execAffected(ctx, resetFailedLogins, email, r.now())
}

// Unblock clears blocked, blocked_at, and failed_attempts.
func (r *PostgresRepository) Unblock(ctx context.Context, email string) (bool, error) {
	return r.execAffected(ctx, unblockAccount, email, r.now())
}

// UnblockIfExpired clears the block only if blocked_at <= blockedBefore.
func (r *PostgresRepository) UnblockIfExpired(ctx context.Context, email string, blockedBefore time.Time) (bool, error) {
	return r.execAffected(ctx, unblockExpiredAccount, email, r.now(), blockedBefore)
}

func (r *PostgresRepository) execAffected(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
