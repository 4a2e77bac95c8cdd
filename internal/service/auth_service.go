package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"

	"github.com/nmhung311/Exp-Gest-System/internal/domain"
	"github.com/nmhung311/Exp-Gest-System/internal/repo/postgres"
	"github.com/nmhung311/Exp-Gest-System/pkg/auth"
	"github.com/nmhung311/Exp-Gest-System/pkg/config"
	"github.com/nmhung311/Exp-Gest-System/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterReq) (*domain.User, error)
	Login(ctx context.Context, req *domain.LoginReq) (*domain.LoginRes, error)
	// ResolveSession looks the opaque session token up server-side.
	ResolveSession(ctx context.Context, token string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type authService struct {
	users postgres.UserRepo
	cfg   *config.Config
}

func NewAuthService(users postgres.UserRepo, cfg *config.Config) AuthService {
	return &authService{users: users, cfg: cfg}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterReq) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, req.Username, req.Email, hash, "staff")
	if err != nil {
		if errors.Is(err, postgres.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	logger.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginReq) (*domain.LoginRes, error) {
	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrBadCredentials
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, ErrBadCredentials
	}

	accessToken, err := auth.NewAccessToken(user.ID, user.Username, user.Role,
		s.cfg.Auth.JWTSecret, s.cfg.Auth.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	sessionToken := uuid.NewString()
	expiresAt := time.Now().Add(s.cfg.Auth.SessionTTL)
	if err := s.users.CreateSession(ctx, user.ID, sessionToken, expiresAt); err != nil {
		return nil, err
	}

	return &domain.LoginRes{
		User:         user,
		AccessToken:  accessToken,
		SessionToken: sessionToken,
	}, nil
}

func (s *authService) ResolveSession(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}
	user, err := s.users.FindBySession(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrSessionInvalid
	}
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}
