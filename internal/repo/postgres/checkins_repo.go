package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmhung311/Exp-Gest-System/internal/domain"
)

type CheckinRepo interface {
	// Create inserts the check-in row and flips the guest's denormalized
	// checkin_status in the same transaction.
	Create(ctx context.Context, guestID int64, gate, staff, method string) (*domain.Checkin, error)
	GetByGuest(ctx context.Context, guestID int64) (*domain.Checkin, error)
	// Delete removes the check-in row and resets the guest's status, again
	// transactionally so the two can never diverge.
	Delete(ctx context.Context, guestID int64) (bool, error)
	BulkCheckIn(ctx context.Context, guestIDs []int64) (*domain.BulkResult, error)
	BulkCheckOut(ctx context.Context, guestIDs []int64) (*domain.BulkResult, error)
	CountFiltered(ctx context.Context, f GuestFilters) (int, error)
}

type CheckinRepoImpl struct{ pool *pgxpool.Pool }

func NewCheckinRepo(pool *pgxpool.Pool) *CheckinRepoImpl { return &CheckinRepoImpl{pool: pool} }

const checkinCols = `id, guest_id, time, gate, staff, method`

func scanCheckin(row pgx.Row) (*domain.Checkin, error) {
	var c domain.Checkin
	err := row.Scan(&c.ID, &c.GuestID, &c.Time, &c.Gate, &c.Staff, &c.Method)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CheckinRepoImpl) Create(ctx context.Context, guestID int64, gate, staff, method string) (*domain.Checkin, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO checkins (guest_id, gate, staff, method)
  VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4)
  RETURNING ` + checkinCols

	c, err := scanCheckin(tx.QueryRow(ctx, q, guestID, gate, staff, method))
	if err != nil {
		return nil, mapUniqueViolation(err)
	}

	if _, err := tx.Exec(ctx, `UPDATE guests SET checkin_status = 'arrived' WHERE id = $1`, guestID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CheckinRepoImpl) GetByGuest(ctx context.Context, guestID int64) (*domain.Checkin, error) {
	const q = `SELECT ` + checkinCols + ` FROM checkins WHERE guest_id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	c, err := scanCheckin(r.pool.QueryRow(ctx, q, guestID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *CheckinRepoImpl) Delete(ctx context.Context, guestID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `DELETE FROM checkins WHERE guest_id = $1`, guestID)
	if err != nil {
		return false, err
	}

	if _, err := tx.Exec(ctx, `UPDATE guests SET checkin_status = 'not_arrived' WHERE id = $1`, guestID); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *CheckinRepoImpl) BulkCheckIn(ctx context.Context, guestIDs []int64) (*domain.BulkResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	res := &domain.BulkResult{}
	for _, id := range guestIDs {
		ct, err := tx.Exec(ctx,
			`INSERT INTO checkins (guest_id, gate, staff, method)
       SELECT $1, 'Bulk', 'System', $2 WHERE EXISTS (SELECT 1 FROM guests WHERE id = $1)
       ON CONFLICT (guest_id) DO NOTHING`,
			id, domain.MethodBulk)
		if err != nil {
			return nil, err
		}
		if ct.RowsAffected() == 0 {
			res.Skipped = append(res.Skipped, id)
			continue
		}
		if _, err := tx.Exec(ctx, `UPDATE guests SET checkin_status = 'arrived' WHERE id = $1`, id); err != nil {
			return nil, err
		}
		res.Count++
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *CheckinRepoImpl) BulkCheckOut(ctx context.Context, guestIDs []int64) (*domain.BulkResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	res := &domain.BulkResult{}
	for _, id := range guestIDs {
		ct, err := tx.Exec(ctx, `DELETE FROM checkins WHERE guest_id = $1`, id)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `UPDATE guests SET checkin_status = 'not_arrived' WHERE id = $1`, id); err != nil {
			return nil, err
		}
		if ct.RowsAffected() == 0 {
			res.Skipped = append(res.Skipped, id)
			continue
		}
		res.Count++
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *CheckinRepoImpl) CountFiltered(ctx context.Context, f GuestFilters) (int, error) {
	where, args := f.whereClause()
	q := `SELECT COUNT(*) FROM checkins c JOIN guests g ON g.id = c.guest_id
  LEFT JOIN events e ON e.id = g.event_id` + where

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int
	err := r.pool.QueryRow(ctx, q, args...).Scan(&n)
	return n, err
}
