package service

import (
	"context"
	"errors"

	"github.com/nmhung311/Exp-Gest-System/internal/domain"
	"github.com/nmhung311/Exp-Gest-System/internal/notify"
	"github.com/nmhung311/Exp-Gest-System/internal/repo/postgres"
	"github.com/nmhung311/Exp-Gest-System/pkg/logger"
)

type CheckinResult struct {
	Guest   *domain.Guest   `json:"guest"`
	Checkin *domain.Checkin `json:"checkin"`
}

type CheckinService interface {
	CheckIn(ctx context.Context, tokenValue, gate, staff string, eventID *int64) (*CheckinResult, error)
	Undo(ctx context.Context, tokenValue string) error
	DeleteCheckin(ctx context.Context, guestID int64) error
	BulkCheckIn(ctx context.Context, guestIDs []int64) (*domain.BulkResult, error)
	BulkCheckOut(ctx context.Context, guestIDs []int64) (*domain.BulkResult, error)
}

type checkinService struct {
	tokens    TokenService
	tokenRepo postgres.TokenRepo
	guests    postgres.GuestRepo
	checkins  postgres.CheckinRepo
	hub       *notify.Hub
}

func NewCheckinService(
	tokens TokenService,
	tokenRepo postgres.TokenRepo,
	guests postgres.GuestRepo,
	checkins postgres.CheckinRepo,
	hub *notify.Hub,
) CheckinService {
	return &checkinService{
		tokens:    tokens,
		tokenRepo: tokenRepo,
		guests:    guests,
		checkins:  checkins,
		hub:       hub,
	}
}

func (s *checkinService) CheckIn(ctx context.Context, tokenValue, gate, staff string, eventID *int64) (*CheckinResult, error) {
	tok, guest, err := s.tokens.Resolve(ctx, tokenValue)
	if err != nil {
		return nil, err
	}

	if eventID != nil && guest.EventID != nil && *guest.EventID != *eventID {
		return nil, ErrEventMismatch
	}

	if gate == "" {
		gate = "QR Scanner"
	}
	if staff == "" {
		staff = "System"
	}

	ci, err := s.checkins.Create(ctx, guest.ID, gate, staff, domain.MethodQRCode)
	if err != nil {
		if errors.Is(err, postgres.ErrDuplicate) {
			return nil, s.conflict(ctx, guest)
		}
		return nil, err
	}

	guest.CheckinStatus = domain.Arrived
	s.hub.Publish(tok.Token, notify.Message{Type: "checkin", GuestID: guest.ID, Time: ci.Time})

	logger.InfoContext(ctx, "guest checked in", "guest_id", guest.ID, "gate", gate)
	return &CheckinResult{Guest: guest, Checkin: ci}, nil
}

// conflict re-reads the existing check-in and repairs the denormalized
// status if an earlier write left it stale.
func (s *checkinService) conflict(ctx context.Context, guest *domain.Guest) error {
	existing, err := s.checkins.GetByGuest(ctx, guest.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		// The duplicate row vanished between insert and re-read; report
		// conflict with a zero time rather than inventing one.
		return &AlreadyCheckedInError{}
	}
	if guest.CheckinStatus != domain.Arrived {
		if err := s.guests.SetCheckinStatus(ctx, guest.ID, domain.Arrived); err != nil {
			return err
		}
	}
	return &AlreadyCheckedInError{At: existing.Time}
}

func (s *checkinService) Undo(ctx context.Context, tokenValue string) error {
	if tokenValue == "" {
		return ErrTokenRequired
	}
	// Undo accepts revoked tokens too: the credential only locates the guest.
	tok, err := s.tokenRepo.GetByValue(ctx, tokenValue)
	if err != nil {
		return err
	}
	if tok == nil {
		return ErrInvalidToken
	}

	deleted, err := s.checkins.Delete(ctx, tok.GuestID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNoCheckin
	}
	return nil
}

func (s *checkinService) DeleteCheckin(ctx context.Context, guestID int64) error {
	guest, err := s.guests.GetByID(ctx, guestID)
	if err != nil {
		return err
	}
	if guest == nil {
		return ErrGuestNotFound
	}

	// Forces status back even when no check-in row exists.
	_, err = s.checkins.Delete(ctx, guestID)
	return err
}

func (s *checkinService) BulkCheckIn(ctx context.Context, guestIDs []int64) (*domain.BulkResult, error) {
	return s.checkins.BulkCheckIn(ctx, guestIDs)
}

func (s *checkinService) BulkCheckOut(ctx context.Context, guestIDs []int64) (*domain.BulkResult, error) {
	return s.checkins.BulkCheckOut(ctx, guestIDs)
}
