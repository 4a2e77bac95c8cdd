package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmhung311/Exp-Gest-System/internal/domain"
)

type TokenRepo interface {
	Create(ctx context.Context, guestID int64, token string) (*domain.Token, error)
	GetActiveByGuest(ctx context.Context, guestID int64) (*domain.Token, error)
	GetByValue(ctx context.Context, token string) (*domain.Token, error)
	GetActiveByValue(ctx context.Context, token string) (*domain.Token, error)
	Reactivate(ctx context.Context, id int64) error
}

type TokenRepoImpl struct{ pool *pgxpool.Pool }

func NewTokenRepo(pool *pgxpool.Pool) *TokenRepoImpl { return &TokenRepoImpl{pool: pool} }

const tokenCols = `id, guest_id, token, status, created_at, expires_at`

func scanToken(row pgx.Row) (*domain.Token, error) {
	var t domain.Token
	err := row.Scan(&t.ID, &t.GuestID, &t.Token, &t.Status, &t.CreatedAt, &t.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TokenRepoImpl) Create(ctx context.Context, guestID int64, token string) (*domain.Token, error) {
	const q = `INSERT INTO tokens (guest_id, token, status) VALUES ($1, $2, 'active')
  RETURNING ` + tokenCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	t, err := scanToken(r.pool.QueryRow(ctx, q, guestID, token))
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return t, nil
}

func (r *TokenRepoImpl) GetActiveByGuest(ctx context.Context, guestID int64) (*domain.Token, error) {
	const q = `SELECT ` + tokenCols + ` FROM tokens WHERE guest_id = $1 AND status = 'active'`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	t, err := scanToken(r.pool.QueryRow(ctx, q, guestID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (r *TokenRepoImpl) GetByValue(ctx context.Context, token string) (*domain.Token, error) {
	const q = `SELECT ` + tokenCols + ` FROM tokens WHERE token = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	t, err := scanToken(r.pool.QueryRow(ctx, q, token))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (r *TokenRepoImpl) GetActiveByValue(ctx context.Context, token string) (*domain.Token, error) {
	const q = `SELECT ` + tokenCols + ` FROM tokens WHERE token = $1 AND status = 'active'`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	t, err := scanToken(r.pool.QueryRow(ctx, q, token))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (r *TokenRepoImpl) Reactivate(ctx context.Context, id int64) error {
	const q = `UPDATE tokens SET status = 'active' WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, id)
	return mapUniqueViolation(err)
}
