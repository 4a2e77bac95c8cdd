package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nmhung311/Exp-Gest-System/internal/domain"
	"github.com/nmhung311/Exp-Gest-System/internal/notify"
	"github.com/nmhung311/Exp-Gest-System/internal/service"
)

func newCheckinFixture() (service.CheckinService, *mockTokenRepo, *mockGuestRepo, *mockCheckinRepo, *notify.Hub) {
	tokens := newMockTokenRepo()
	guests := newMockGuestRepo()
	checkins := newMockCheckinRepo(guests)
	hub := notify.NewHub()

	tokenService := service.NewTokenService(tokens, guests)
	svc := service.NewCheckinService(tokenService, tokens, guests, checkins, hub)
	return svc, tokens, guests, checkins, hub
}

func TestCheckIn_Success(t *testing.T) {
	svc, tokens, guests, _, hub := newCheckinFixture()

	guest := guests.seed("An Nguyen", nil)
	tokens.seed(guest.ID, "tok-1", domain.TokenActive, nil)

	ch, cancel := hub.Subscribe("tok-1")
	defer cancel()

	res, err := svc.CheckIn(context.Background(), "tok-1", "", "", nil)
	if err != nil {
		t.Fatalf("check-in failed: %v", err)
	}
	if res.Guest.ID != guest.ID {
		t.Fatalf("wrong guest in result: %d", res.Guest.ID)
	}
	if res.Guest.CheckinStatus != domain.Arrived {
		t.Fatalf("expected arrived status, got %s", res.Guest.CheckinStatus)
	}
	if res.Checkin.Method != domain.MethodQRCode {
		t.Fatalf("expected method %q, got %q", domain.MethodQRCode, res.Checkin.Method)
	}
	if res.Checkin.Gate == nil || *res.Checkin.Gate != "QR Scanner" {
		t.Fatal("expected default gate")
	}

	select {
	case msg := <-ch:
		if msg.Type != "checkin" || msg.GuestID != guest.ID {
			t.Fatalf("unexpected notification: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no notification published")
	}
}

func TestCheckIn_SecondAttemptConflicts(t *testing.T) {
	svc, tokens, guests, checkins, _ := newCheckinFixture()

	guest := guests.seed("An Nguyen", nil)
	tokens.seed(guest.ID, "tok-1", domain.TokenActive, nil)

	if _, err := svc.CheckIn(context.Background(), "tok-1", "Gate A", "Lan", nil); err != nil {
		t.Fatalf("first check-in failed: %v", err)
	}

	_, err := svc.CheckIn(context.Background(), "tok-1", "Gate A", "Lan", nil)
	var already *service.AlreadyCheckedInError
	if !errors.As(err, &already) {
		t.Fatalf("expected AlreadyCheckedInError, got %v", err)
	}
	if already.At.IsZero() {
		t.Fatal("conflict should echo the original check-in time")
	}

	if len(checkins.byGuest) != 1 {
		t.Fatalf("expected one check-in row, found %d", len(checkins.byGuest))
	}
}

func TestCheckIn_ConflictRepairsStaleStatus(t *testing.T) {
	svc, tokens, guests, checkins, _ := newCheckinFixture()

	guest := guests.seed("An Nguyen", nil)
	tokens.seed(guest.ID, "tok-1", domain.TokenActive, nil)

	if _, err := svc.CheckIn(context.Background(), "tok-1", "", "", nil); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}
	// A check-in row exists but the denormalized status was left stale.
	guest.CheckinStatus = domain.NotArrived

	_, err := svc.CheckIn(context.Background(), "tok-1", "", "", nil)
	var already *service.AlreadyCheckedInError
	if !errors.As(err, &already) {
		t.Fatalf("expected AlreadyCheckedInError, got %v", err)
	}
	if guest.CheckinStatus != domain.Arrived {
		t.Fatal("conflict path should repair the stale status")
	}
	if len(checkins.byGuest) != 1 {
		t.Fatalf("expected one check-in row, found %d", len(checkins.byGuest))
	}
}

func TestCheckIn_EventMismatch(t *testing.T) {
	svc, tokens, guests, _, _ := newCheckinFixture()

	eventID := int64(5)
	guest := guests.seed("An Nguyen", &eventID)
	tokens.seed(guest.ID, "tok-1", domain.TokenActive, nil)

	otherEvent := int64(9)
	_, err := svc.CheckIn(context.Background(), "tok-1", "", "", &otherEvent)
	if !errors.Is(err, service.ErrEventMismatch) {
		t.Fatalf("expected ErrEventMismatch, got %v", err)
	}

	// The guest's own event is accepted.
	if _, err := svc.CheckIn(context.Background(), "tok-1", "", "", &eventID); err != nil {
		t.Fatalf("check-in against own event failed: %v", err)
	}
}

func TestCheckIn_UnassignedGuestPassesEventFilter(t *testing.T) {
	svc, tokens, guests, _, _ := newCheckinFixture()

	guest := guests.seed("An Nguyen", nil)
	tokens.seed(guest.ID, "tok-1", domain.TokenActive, nil)

	eventID := int64(3)
	if _, err := svc.CheckIn(context.Background(), "tok-1", "", "", &eventID); err != nil {
		t.Fatalf("guest without event should check in anywhere: %v", err)
	}
}

func TestUndo_RemovesCheckinAndResetsStatus(t *testing.T) {
	svc, tokens, guests, checkins, _ := newCheckinFixture()

	guest := guests.seed("An Nguyen", nil)
	tokens.seed(guest.ID, "tok-1", domain.TokenActive, nil)

	if _, err := svc.CheckIn(context.Background(), "tok-1", "", "", nil); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}

	if err := svc.Undo(context.Background(), "tok-1"); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if len(checkins.byGuest) != 0 {
		t.Fatal("check-in row should be gone")
	}
	if guest.CheckinStatus != domain.NotArrived {
		t.Fatalf("expected not_arrived after undo, got %s", guest.CheckinStatus)
	}

	// Undoing again reports there is nothing to undo.
	if err := svc.Undo(context.Background(), "tok-1"); !errors.Is(err, service.ErrNoCheckin) {
		t.Fatalf("expected ErrNoCheckin, got %v", err)
	}
}

func TestUndo_AcceptsRevokedToken(t *testing.T) {
	svc, tokens, guests, _, _ := newCheckinFixture()

	guest := guests.seed("An Nguyen", nil)
	tokens.seed(guest.ID, "active-tok", domain.TokenActive, nil)
	tokens.seed(guest.ID, "revoked-tok", domain.TokenRevoked, nil)

	if _, err := svc.CheckIn(context.Background(), "active-tok", "", "", nil); err != nil {
		t.Fatalf("check-in failed: %v", err)
	}

	if err := svc.Undo(context.Background(), "revoked-tok"); err != nil {
		t.Fatalf("undo with revoked token should still locate the guest: %v", err)
	}
}

func TestDeleteCheckin_UnknownGuest(t *testing.T) {
	svc, _, _, _, _ := newCheckinFixture()

	err := svc.DeleteCheckin(context.Background(), 999)
	if !errors.Is(err, service.ErrGuestNotFound) {
		t.Fatalf("expected ErrGuestNotFound, got %v", err)
	}
}

func TestBulkCheckIn_SkipsAlreadyArrived(t *testing.T) {
	svc, tokens, guests, _, _ := newCheckinFixture()

	g1 := guests.seed("An", nil)
	g2 := guests.seed("Binh", nil)
	g3 := guests.seed("Chi", nil)

	tokens.seed(g2.ID, "tok-2", domain.TokenActive, nil)
	if _, err := svc.CheckIn(context.Background(), "tok-2", "", "", nil); err != nil {
		t.Fatalf("seed check-in failed: %v", err)
	}

	res, err := svc.BulkCheckIn(context.Background(), []int64{g1.ID, g2.ID, g3.ID})
	if err != nil {
		t.Fatalf("bulk check-in failed: %v", err)
	}
	if res.Count != 2 {
		t.Fatalf("expected 2 checked in, got %d", res.Count)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != g2.ID {
		t.Fatalf("expected guest %d skipped, got %v", g2.ID, res.Skipped)
	}
}
