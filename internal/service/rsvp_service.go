package service

import (
	"context"

	"github.com/nmhung311/Exp-Gest-System/internal/domain"
	"github.com/nmhung311/Exp-Gest-System/internal/repo/postgres"
)

type RSVPService interface {
	// Respond overwrites the guest's RSVP status; any status is reachable
	// from any other.
	Respond(ctx context.Context, tokenValue, status string) (*domain.Guest, error)
	BulkRespond(ctx context.Context, guestIDs []int64, status string) (int, error)
}

type rsvpService struct {
	tokens TokenService
	guests postgres.GuestRepo
}

func NewRSVPService(tokens TokenService, guests postgres.GuestRepo) RSVPService {
	return &rsvpService{tokens: tokens, guests: guests}
}

func (s *rsvpService) Respond(ctx context.Context, tokenValue, status string) (*domain.Guest, error) {
	rsvp, ok := domain.ParseRSVPStatus(status)
	if !ok {
		return nil, ErrInvalidStatus
	}

	_, guest, err := s.tokens.Resolve(ctx, tokenValue)
	if err != nil {
		return nil, err
	}

	if err := s.guests.SetRSVPStatus(ctx, guest.ID, rsvp); err != nil {
		return nil, err
	}
	guest.RSVPStatus = rsvp
	return guest, nil
}

func (s *rsvpService) BulkRespond(ctx context.Context, guestIDs []int64, status string) (int, error) {
	rsvp, ok := domain.ParseRSVPStatus(status)
	if !ok {
		return 0, ErrInvalidStatus
	}
	return s.guests.BulkSetRSVP(ctx, guestIDs, rsvp)
}
