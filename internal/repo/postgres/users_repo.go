package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmhung311/Exp-Gest-System/internal/domain"
)

type UserRepo interface {
	Create(ctx context.Context, username, email, passwordHash, role string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	CreateSession(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	// FindBySession resolves a server-side session token to its user,
	// ignoring expired sessions.
	FindBySession(ctx context.Context, token string) (*domain.User, error)
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

type UserRepoImpl struct{ pool *pgxpool.Pool }

func NewUserRepo(pool *pgxpool.Pool) *UserRepoImpl { return &UserRepoImpl{pool: pool} }

const userCols = `id, username, email, password_hash, role, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepoImpl) Create(ctx context.Context, username, email, passwordHash, role string) (*domain.User, error) {
	const q = `INSERT INTO users (username, email, password_hash, role)
  VALUES ($1, $2, $3, $4) RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	u, err := scanUser(r.pool.QueryRow(ctx, q, username, email, passwordHash, role))
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return u, nil
}

func (r *UserRepoImpl) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE username = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	u, err := scanUser(r.pool.QueryRow(ctx, q, username))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *UserRepoImpl) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	u, err := scanUser(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *UserRepoImpl) List(ctx context.Context) ([]domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users ORDER BY created_at ASC, id ASC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *UserRepoImpl) CreateSession(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	const q = `INSERT INTO user_tokens (user_id, token, expires_at) VALUES ($1, $2, $3)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, userID, token, expiresAt)
	return mapUniqueViolation(err)
}

func (r *UserRepoImpl) FindBySession(ctx context.Context, token string) (*domain.User, error) {
	const q = `SELECT u.id, u.username, u.email, u.password_hash, u.role, u.created_at
  FROM user_tokens t JOIN users u ON u.id = t.user_id
  WHERE t.token = $1 AND t.expires_at > NOW()`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	u, err := scanUser(r.pool.QueryRow(ctx, q, token))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *UserRepoImpl) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	const q = `DELETE FROM user_tokens WHERE expires_at <= NOW()`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ct, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
