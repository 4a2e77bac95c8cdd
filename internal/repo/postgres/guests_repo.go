package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmhung311/Exp-Gest-System/internal/domain"
)

type GuestRepo interface {
	Create(ctx context.Context, in *domain.GuestReq) (*domain.Guest, error)
	Update(ctx context.Context, id int64, in *domain.GuestReq) (*domain.Guest, error)
	Delete(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*domain.Guest, error)
	List(ctx context.Context) ([]domain.Guest, error)
	ListCheckedIn(ctx context.Context, eventID *int64) ([]domain.CheckedInGuest, error)
	ListPage(ctx context.Context, f GuestFilters, limit, offset int) ([]domain.Guest, error)
	CountFiltered(ctx context.Context, f GuestFilters) (int, error)
	Stats(ctx context.Context, f GuestFilters) (*domain.GuestStats, error)
	SetCheckinStatus(ctx context.Context, id int64, status domain.CheckinStatus) error
	SetRSVPStatus(ctx context.Context, id int64, status domain.RSVPStatus) error
	BulkSetRSVP(ctx context.Context, ids []int64, status domain.RSVPStatus) (int, error)
	BulkDelete(ctx context.Context, ids []int64) (int, error)
}

type GuestRepoImpl struct{ pool *pgxpool.Pool }

func NewGuestRepo(pool *pgxpool.Pool) *GuestRepoImpl { return &GuestRepoImpl{pool: pool} }

const guestCols = `g.id, g.name, g.title, g.role, g.organization, g.tag,
g.email, g.phone, g.rsvp_status, g.checkin_status, g.event_id, e.name, g.created_at`

const guestFrom = ` FROM guests g LEFT JOIN events e ON e.id = g.event_id`

func scanGuest(row pgx.Row) (*domain.Guest, error) {
	var g domain.Guest
	err := row.Scan(
		&g.ID, &g.Name, &g.Title, &g.Role, &g.Organization, &g.Tag,
		&g.Email, &g.Phone, &g.RSVPStatus, &g.CheckinStatus, &g.EventID, &g.EventName, &g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GuestRepoImpl) Create(ctx context.Context, in *domain.GuestReq) (*domain.Guest, error) {
	const q = `WITH inserted AS (
    INSERT INTO guests (name, title, role, organization, tag, email, phone, checkin_status, event_id)
    VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)
    RETURNING *
  )
  SELECT ` + guestCols + ` FROM inserted g LEFT JOIN events e ON e.id = g.event_id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := in.CheckinStatus
	if status == "" {
		status = string(domain.NotArrived)
	}

	g, err := scanGuest(r.pool.QueryRow(ctx, q,
		in.Name, in.Title, in.Role, in.Organization, in.Tag,
		in.Email, in.Phone, status, in.EventID,
	))
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return g, nil
}

func (r *GuestRepoImpl) Update(ctx context.Context, id int64, in *domain.GuestReq) (*domain.Guest, error) {
	const q = `WITH updated AS (
    UPDATE guests SET
      name = $2, title = $3, role = $4, organization = $5, tag = $6,
      email = NULLIF($7, ''), phone = NULLIF($8, ''), checkin_status = $9, event_id = $10
    WHERE id = $1
    RETURNING *
  )
  SELECT ` + guestCols + ` FROM updated g LEFT JOIN events e ON e.id = g.event_id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := in.CheckinStatus
	if status == "" {
		status = string(domain.NotArrived)
	}

	g, err := scanGuest(r.pool.QueryRow(ctx, q,
		id, in.Name, in.Title, in.Role, in.Organization, in.Tag,
		in.Email, in.Phone, status, in.EventID,
	))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return g, nil
}

func (r *GuestRepoImpl) Delete(ctx context.Context, id int64) (bool, error) {
	// Tokens and check-ins go with the guest via ON DELETE CASCADE.
	const q = `DELETE FROM guests WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ct, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *GuestRepoImpl) GetByID(ctx context.Context, id int64) (*domain.Guest, error) {
	const q = `SELECT ` + guestCols + guestFrom + ` WHERE g.id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	g, err := scanGuest(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return g, err
}

func (r *GuestRepoImpl) List(ctx context.Context) ([]domain.Guest, error) {
	const q = `SELECT ` + guestCols + guestFrom + ` ORDER BY g.created_at DESC, g.id DESC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGuests(rows)
}

func (r *GuestRepoImpl) ListCheckedIn(ctx context.Context, eventID *int64) ([]domain.CheckedInGuest, error) {
	q := `SELECT ` + guestCols + `, c.time, c.method, c.gate, c.staff
  FROM checkins c
  JOIN guests g ON g.id = c.guest_id
  LEFT JOIN events e ON e.id = g.event_id`
	var args []any
	if eventID != nil {
		q += ` WHERE g.event_id = $1`
		args = append(args, *eventID)
	}
	q += ` ORDER BY c.time DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.CheckedInGuest, 0)
	for rows.Next() {
		var cg domain.CheckedInGuest
		if err := rows.Scan(
			&cg.ID, &cg.Name, &cg.Title, &cg.Role, &cg.Organization, &cg.Tag,
			&cg.Email, &cg.Phone, &cg.RSVPStatus, &cg.CheckinStatus, &cg.EventID, &cg.EventName, &cg.CreatedAt,
			&cg.CheckedInAt, &cg.CheckinMethod, &cg.Gate, &cg.Staff,
		); err != nil {
			return nil, err
		}
		out = append(out, cg)
	}
	return out, rows.Err()
}

func (r *GuestRepoImpl) ListPage(ctx context.Context, f GuestFilters, limit, offset int) ([]domain.Guest, error) {
	where, args := f.whereClause()
	args = append(args, limit, offset)
	q := fmt.Sprintf(`SELECT `+guestCols+guestFrom+`%s ORDER BY g.created_at DESC, g.id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGuests(rows)
}

func (r *GuestRepoImpl) CountFiltered(ctx context.Context, f GuestFilters) (int, error) {
	where, args := f.whereClause()
	q := `SELECT COUNT(*)` + guestFrom + where

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int
	err := r.pool.QueryRow(ctx, q, args...).Scan(&n)
	return n, err
}

func (r *GuestRepoImpl) Stats(ctx context.Context, f GuestFilters) (*domain.GuestStats, error) {
	where, args := f.whereClause()
	q := `SELECT COUNT(*),
  COUNT(*) FILTER (WHERE g.rsvp_status = 'accepted'),
  COUNT(*) FILTER (WHERE g.rsvp_status = 'declined'),
  COUNT(*) FILTER (WHERE g.rsvp_status = 'pending'),
  COUNT(*) FILTER (WHERE g.checkin_status = 'arrived'),
  COUNT(*) FILTER (WHERE g.checkin_status = 'not_arrived')` + guestFrom + where

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var s domain.GuestStats
	err := r.pool.QueryRow(ctx, q, args...).Scan(
		&s.Total, &s.Accepted, &s.Declined, &s.Pending, &s.CheckedIn, &s.NotArrived,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GuestRepoImpl) SetCheckinStatus(ctx context.Context, id int64, status domain.CheckinStatus) error {
	const q = `UPDATE guests SET checkin_status = $2 WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, id, status)
	return err
}

func (r *GuestRepoImpl) SetRSVPStatus(ctx context.Context, id int64, status domain.RSVPStatus) error {
	const q = `UPDATE guests SET rsvp_status = $2 WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, id, status)
	return err
}

func (r *GuestRepoImpl) BulkSetRSVP(ctx context.Context, ids []int64, status domain.RSVPStatus) (int, error) {
	const q = `UPDATE guests SET rsvp_status = $2 WHERE id = ANY($1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ct, err := r.pool.Exec(ctx, q, ids, status)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

func (r *GuestRepoImpl) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	const q = `DELETE FROM guests WHERE id = ANY($1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ct, err := r.pool.Exec(ctx, q, ids)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

func collectGuests(rows pgx.Rows) ([]domain.Guest, error) {
	out := make([]domain.Guest, 0)
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}
