package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tilford/calhold/internal/domain"
)

type HoldRepository struct {
	pool *pgxpool.Pool
}

func NewHoldRepository(pool *pgxpool.Pool) *HoldRepository {
	return &HoldRepository{pool: pool}
}

func (r *HoldRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// LockCalendar takes a transaction-scoped advisory lock keyed by calendar
// email. It must run inside WithTx; the lock is released at commit or
// rollback. A lock wait beyond lock_timeout maps to domain.ErrBusy.
func (r *HoldRepository) LockCalendar(ctx context.Context, calendarEmail string) error {
	tx := txFromContext(ctx)
	if tx == nil {
		return fmt.Errorf("lock calendar: not in transaction")
	}
	if _, err := tx.Exec(ctx, `SET LOCAL lock_timeout = '2s'`); err != nil {
		return fmt.Errorf("set lock timeout: %w", err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, calendarEmail); err != nil {
		if isLockTimeout(err) {
			return domain.ErrBusy
		}
		return fmt.Errorf("lock calendar: %w", err)
	}
	return nil
}

func (r *HoldRepository) GetAccountByCalendar(ctx context.Context, calendarEmail string) (domain.CalendarAccount, error) {
	const query = `
SELECT id, user_email, calendar_email, is_primary, priority, is_active, oauth_credentials, created_at, updated_at
FROM calendar_accounts
WHERE calendar_email = $1`

	var a domain.CalendarAccount
	err := r.queryRow(ctx, query, calendarEmail).Scan(
		&a.ID, &a.UserEmail, &a.CalendarEmail, &a.IsPrimary, &a.Priority, &a.IsActive,
		&a.Credentials, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.CalendarAccount{}, domain.ErrAccountNotFound
		}
		return domain.CalendarAccount{}, fmt.Errorf("get account by calendar: %w", err)
	}
	return a, nil
}

func (r *HoldRepository) HasOverlappingHold(ctx context.Context, accountID string, slot domain.Interval, now time.Time) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM provisional_holds
	WHERE calendar_account_id = $1
	  AND status = 'active'
	  AND expires_at > $2
	  AND slot_start < $3
	  AND slot_end > $4
)`

	var exists bool
	if err := r.queryRow(ctx, query, accountID, now, slot.End, slot.Start).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("check overlapping hold: %w", err)
	}
	return exists, nil
}

func (r *HoldRepository) ListActiveHolds(ctx context.Context, accountID string, now time.Time) ([]domain.ProvisionalHold, error) {
	const query = `
SELECT id, booking_inquiry_id, calendar_account_id, calendar_email, slot_start, slot_end,
       status, expires_at, created_at, released_at, confirmed_event_id, metadata
FROM provisional_holds
WHERE calendar_account_id = $1 AND status = 'active' AND expires_at > $2
ORDER BY slot_start`

	rows, err := r.query(ctx, query, accountID, now)
	if err != nil {
		return nil, fmt.Errorf("list active holds: %w", err)
	}
	defer rows.Close()

	var holds []domain.ProvisionalHold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hold: %w", err)
		}
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list active holds: %w", err)
	}
	return holds, nil
}

func (r *HoldRepository) CreateHold(ctx context.Context, hold domain.ProvisionalHold) error {
	const stmt = `
INSERT INTO provisional_holds
	(id, booking_inquiry_id, calendar_account_id, calendar_email, slot_start, slot_end, status, expires_at, created_at, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	var metadata []byte
	if len(hold.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(hold.Metadata)
		if err != nil {
			return fmt.Errorf("encode hold metadata: %w", err)
		}
	}

	_, err := r.exec(ctx, stmt,
		hold.ID,
		hold.BookingInquiryID,
		hold.CalendarAccountID,
		hold.CalendarEmail,
		hold.Slot.Start,
		hold.Slot.End,
		hold.Status,
		hold.ExpiresAt,
		hold.CreatedAt,
		metadata,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create hold: %w", err)
	}
	return nil
}

func (r *HoldRepository) GetHoldForUpdate(ctx context.Context, holdID string) (domain.ProvisionalHold, error) {
	const query = `
SELECT id, booking_inquiry_id, calendar_account_id, calendar_email, slot_start, slot_end,
       status, expires_at, created_at, released_at, confirmed_event_id, metadata
FROM provisional_holds
WHERE id = $1
FOR UPDATE`

	h, err := scanHold(r.queryRow(ctx, query, holdID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ProvisionalHold{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.ProvisionalHold{}, domain.ErrHoldNotFound
		}
		return domain.ProvisionalHold{}, fmt.Errorf("get hold: %w", err)
	}
	return h, nil
}

func (r *HoldRepository) MarkConfirmed(ctx context.Context, holdID, eventID string) error {
	const stmt = `
UPDATE provisional_holds
SET status = 'confirmed', confirmed_event_id = $2
WHERE id = $1 AND status = 'active'`

	tag, err := r.exec(ctx, stmt, holdID, eventID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("mark confirmed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *HoldRepository) MarkReleased(ctx context.Context, holdID string, at time.Time) error {
	const stmt = `
UPDATE provisional_holds
SET status = 'released', released_at = $2
WHERE id = $1 AND status = 'active'`

	tag, err := r.exec(ctx, stmt, holdID, at)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("mark released: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *HoldRepository) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	const stmt = `
UPDATE provisional_holds
SET status = 'expired'
WHERE status = 'active' AND expires_at <= $1`

	tag, err := r.exec(ctx, stmt, now)
	if err != nil {
		return 0, fmt.Errorf("expire due holds: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanHold(row pgx.Row) (domain.ProvisionalHold, error) {
	var (
		h        domain.ProvisionalHold
		metadata []byte
	)
	err := row.Scan(
		&h.ID, &h.BookingInquiryID, &h.CalendarAccountID, &h.CalendarEmail,
		&h.Slot.Start, &h.Slot.End, &h.Status, &h.ExpiresAt, &h.CreatedAt,
		&h.ReleasedAt, &h.ConfirmedEventID, &metadata,
	)
	if err != nil {
		return domain.ProvisionalHold{}, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &h.Metadata); err != nil {
			return domain.ProvisionalHold{}, fmt.Errorf("decode hold metadata: %w", err)
		}
	}
	return h, nil
}

func (r *HoldRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *HoldRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *HoldRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
