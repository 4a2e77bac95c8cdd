package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmhung311/Exp-Gest-System/internal/domain"
)

type EventRepo interface {
	Create(ctx context.Context, in *domain.EventReq) (*domain.Event, error)
	Update(ctx context.Context, id int64, in *domain.EventUpdateReq) (*domain.Event, error)
	Delete(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
	List(ctx context.Context) ([]domain.Event, error)
	ListUpcoming(ctx context.Context, period domain.EventPeriod) ([]domain.Event, error)
	ListPage(ctx context.Context, f EventFilters, limit, offset int) ([]domain.Event, error)
	CountFiltered(ctx context.Context, f EventFilters) (int, error)
	Stats(ctx context.Context, f EventFilters) (*domain.EventStats, error)
}

type EventRepoImpl struct{ pool *pgxpool.Pool }

func NewEventRepo(pool *pgxpool.Pool) *EventRepoImpl { return &EventRepoImpl{pool: pool} }

// Dates and times travel as pre-formatted strings so JSON matches what
// clients sent ("2025-01-01", "18:30") without timezone surprises.
const eventCols = `id, name, description,
to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI'),
location, venue_address, venue_map_url, dress_code, program_outline,
status, max_guests, created_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.Date, &e.Time,
		&e.Location, &e.VenueAddress, &e.VenueMapURL, &e.DressCode, &e.ProgramOutline,
		&e.Status, &e.MaxGuests, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EventRepoImpl) Create(ctx context.Context, in *domain.EventReq) (*domain.Event, error) {
	const q = `INSERT INTO events (name, description, date, time, location,
    venue_address, venue_map_url, dress_code, program_outline, status, max_guests)
  VALUES ($1, $2, $3::date, $4::time, $5, $6, $7, $8, $9, $10, $11)
  RETURNING ` + eventCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := in.Status
	if status == "" {
		status = string(domain.EventUpcoming)
	}
	maxGuests := 100
	if in.MaxGuests != nil {
		maxGuests = *in.MaxGuests
	}

	return scanEvent(r.pool.QueryRow(ctx, q,
		in.Name, in.Description, in.Date, in.Time, in.Location,
		in.VenueAddress, in.VenueMapURL, in.DressCode, in.ProgramOutline,
		status, maxGuests,
	))
}

func (r *EventRepoImpl) Update(ctx context.Context, id int64, in *domain.EventUpdateReq) (*domain.Event, error) {
	sets := []string{}
	args := []any{id}

	set := func(col, cast string, val any) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d%s", col, len(args), cast))
	}

	if in.Name != nil {
		set("name", "", *in.Name)
	}
	if in.Description != nil {
		set("description", "", *in.Description)
	}
	if in.Date != nil {
		set("date", "::date", *in.Date)
	}
	if in.Time != nil {
		set("time", "::time", *in.Time)
	}
	if in.Location != nil {
		set("location", "", *in.Location)
	}
	if in.VenueAddress != nil {
		set("venue_address", "", *in.VenueAddress)
	}
	if in.VenueMapURL != nil {
		set("venue_map_url", "", *in.VenueMapURL)
	}
	if in.DressCode != nil {
		set("dress_code", "", *in.DressCode)
	}
	if in.ProgramOutline != nil {
		set("program_outline", "", *in.ProgramOutline)
	}
	if in.Status != nil {
		set("status", "", *in.Status)
	}
	if in.MaxGuests != nil {
		set("max_guests", "", *in.MaxGuests)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	q := fmt.Sprintf(`UPDATE events SET %s WHERE id = $1 RETURNING `+eventCols,
		strings.Join(sets, ", "))

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	e, err := scanEvent(r.pool.QueryRow(ctx, q, args...))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *EventRepoImpl) Delete(ctx context.Context, id int64) (bool, error) {
	// Guests cascade, and their tokens and check-ins cascade in turn.
	const q = `DELETE FROM events WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ct, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *EventRepoImpl) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	e, err := scanEvent(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *EventRepoImpl) List(ctx context.Context) ([]domain.Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events ORDER BY created_at DESC, id DESC`
	return r.query(ctx, q)
}

func (r *EventRepoImpl) ListUpcoming(ctx context.Context, period domain.EventPeriod) ([]domain.Event, error) {
	q := `SELECT ` + eventCols + ` FROM events WHERE status = 'upcoming'`
	if cond := dateWindow(string(period)); cond != "" {
		q += " AND " + cond
	}
	q += ` ORDER BY date ASC NULLS LAST, id ASC`
	return r.query(ctx, q)
}

func (r *EventRepoImpl) ListPage(ctx context.Context, f EventFilters, limit, offset int) ([]domain.Event, error) {
	where, args := f.whereClause()
	args = append(args, limit, offset)
	q := fmt.Sprintf(`SELECT `+eventCols+` FROM events%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))
	return r.query(ctx, q, args...)
}

func (r *EventRepoImpl) CountFiltered(ctx context.Context, f EventFilters) (int, error) {
	where, args := f.whereClause()
	q := `SELECT COUNT(*) FROM events` + where
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var n int
	err := r.pool.QueryRow(ctx, q, args...).Scan(&n)
	return n, err
}

func (r *EventRepoImpl) Stats(ctx context.Context, f EventFilters) (*domain.EventStats, error) {
	where, args := f.whereClause()
	q := `SELECT COUNT(*),
  COUNT(*) FILTER (WHERE status = 'upcoming'),
  COUNT(*) FILTER (WHERE status = 'ongoing'),
  COUNT(*) FILTER (WHERE status = 'completed'),
  COUNT(*) FILTER (WHERE status = 'cancelled')
  FROM events` + where

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var s domain.EventStats
	err := r.pool.QueryRow(ctx, q, args...).Scan(&s.Total, &s.Upcoming, &s.Ongoing, &s.Completed, &s.Cancelled)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *EventRepoImpl) query(ctx context.Context, q string, args ...any) ([]domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
