package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tilford/calhold/internal/domain"
)

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const accountColumns = `id, user_email, calendar_email, is_primary, priority, is_active, oauth_credentials, created_at, updated_at`

func (r *AccountRepository) CreateAccount(ctx context.Context, account domain.CalendarAccount) error {
	const stmt = `
INSERT INTO calendar_accounts
	(id, user_email, calendar_email, is_primary, priority, is_active, oauth_credentials, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.exec(ctx, stmt,
		account.ID,
		account.UserEmail,
		account.CalendarEmail,
		account.IsPrimary,
		account.Priority,
		account.IsActive,
		account.Credentials,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCalendar
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetAccount(ctx context.Context, id string) (domain.CalendarAccount, error) {
	return r.getAccount(ctx, id, false)
}

func (r *AccountRepository) GetAccountForUpdate(ctx context.Context, id string) (domain.CalendarAccount, error) {
	return r.getAccount(ctx, id, true)
}

func (r *AccountRepository) getAccount(ctx context.Context, id string, forUpdate bool) (domain.CalendarAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM calendar_accounts WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var a domain.CalendarAccount
	err := r.queryRow(ctx, query, id).Scan(
		&a.ID, &a.UserEmail, &a.CalendarEmail, &a.IsPrimary, &a.Priority, &a.IsActive,
		&a.Credentials, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.CalendarAccount{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.CalendarAccount{}, domain.ErrAccountNotFound
		}
		return domain.CalendarAccount{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) ListAccountsByUser(ctx context.Context, userEmail string) ([]domain.CalendarAccount, error) {
	const query = `
SELECT ` + accountColumns + `
FROM calendar_accounts
WHERE user_email = $1
ORDER BY is_primary DESC, priority, calendar_email`

	rows, err := r.query(ctx, query, userEmail)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.CalendarAccount
	for rows.Next() {
		var a domain.CalendarAccount
		if err := rows.Scan(
			&a.ID, &a.UserEmail, &a.CalendarEmail, &a.IsPrimary, &a.Priority, &a.IsActive,
			&a.Credentials, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepository) SetActive(ctx context.Context, id string, active bool) error {
	const stmt = `UPDATE calendar_accounts SET is_active = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id, active)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) ClearPrimary(ctx context.Context, userEmail string) error {
	const stmt = `UPDATE calendar_accounts SET is_primary = FALSE, updated_at = NOW() WHERE user_email = $1 AND is_primary`

	if _, err := r.exec(ctx, stmt, userEmail); err != nil {
		return fmt.Errorf("clear primary: %w", err)
	}
	return nil
}

func (r *AccountRepository) SetPrimary(ctx context.Context, id string) error {
	const stmt = `UPDATE calendar_accounts SET is_primary = TRUE, updated_at = NOW() WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("set primary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) UpdateCredentials(ctx context.Context, id string, credentials []byte) error {
	const stmt = `UPDATE calendar_accounts SET oauth_credentials = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id, credentials)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update credentials: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *AccountRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *AccountRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
