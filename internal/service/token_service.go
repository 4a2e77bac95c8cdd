package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/nmhung311/Exp-Gest-System/internal/domain"
	"github.com/nmhung311/Exp-Gest-System/internal/repo/postgres"
)

// tokenBytes yields 22 URL-safe characters, mirroring a 16-byte urlsafe
// secret.
const tokenBytes = 16

// generation retries cover the astronomically unlikely value collision; an
// active-token collision means another request won the race and its token
// is the one to hand back.
const maxTokenRetries = 5

type TokenService interface {
	// IssueOrReuse returns the guest's active token, creating one if none
	// exists. The at-most-one-active invariant is enforced by the storage
	// layer; a concurrent issue loses the race and returns the winner.
	IssueOrReuse(ctx context.Context, guestID int64) (*domain.Token, error)
	// Refresh returns the active token for the guest owning the presented
	// token value, re-activating the presented token when no active one
	// remains.
	Refresh(ctx context.Context, tokenValue string) (*domain.Token, error)
	// Resolve validates a presented token value and returns it with its
	// guest. ErrInvalidToken when unknown or revoked, ErrTokenExpired when
	// past expiry.
	Resolve(ctx context.Context, tokenValue string) (*domain.Token, *domain.Guest, error)
}

type tokenService struct {
	tokens postgres.TokenRepo
	guests postgres.GuestRepo
}

func NewTokenService(tokens postgres.TokenRepo, guests postgres.GuestRepo) TokenService {
	return &tokenService{tokens: tokens, guests: guests}
}

func (s *tokenService) IssueOrReuse(ctx context.Context, guestID int64) (*domain.Token, error) {
	existing, err := s.tokens.GetActiveByGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	for i := 0; i < maxTokenRetries; i++ {
		value, err := generateToken()
		if err != nil {
			return nil, err
		}

		tok, err := s.tokens.Create(ctx, guestID, value)
		if err == nil {
			return tok, nil
		}

		var dup *postgres.DuplicateError
		if errors.As(err, &dup) {
			if dup.Field == "guest" {
				// Lost the race: another request created the active token.
				return s.tokens.GetActiveByGuest(ctx, guestID)
			}
			continue // token value collision, generate another
		}
		return nil, err
	}
	return nil, fmt.Errorf("could not generate a unique token after %d attempts", maxTokenRetries)
}

func (s *tokenService) Refresh(ctx context.Context, tokenValue string) (*domain.Token, error) {
	presented, err := s.tokens.GetByValue(ctx, tokenValue)
	if err != nil {
		return nil, err
	}
	if presented == nil {
		return nil, ErrInvalidToken
	}

	active, err := s.tokens.GetActiveByGuest(ctx, presented.GuestID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return active, nil
	}

	if err := s.tokens.Reactivate(ctx, presented.ID); err != nil {
		if errors.Is(err, postgres.ErrDuplicate) {
			return s.tokens.GetActiveByGuest(ctx, presented.GuestID)
		}
		return nil, err
	}
	presented.Status = domain.TokenActive
	return presented, nil
}

func (s *tokenService) Resolve(ctx context.Context, tokenValue string) (*domain.Token, *domain.Guest, error) {
	if tokenValue == "" {
		return nil, nil, ErrTokenRequired
	}

	tok, err := s.tokens.GetActiveByValue(ctx, tokenValue)
	if err != nil {
		return nil, nil, err
	}
	if tok == nil {
		return nil, nil, ErrInvalidToken
	}
	if tok.IsExpired() {
		return nil, nil, ErrTokenExpired
	}

	guest, err := s.guests.GetByID(ctx, tok.GuestID)
	if err != nil {
		return nil, nil, err
	}
	if guest == nil {
		return nil, nil, ErrGuestNotFound
	}
	return tok, guest, nil
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
