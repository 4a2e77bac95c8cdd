package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTokenRequired  = errors.New("token required")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrGuestNotFound  = errors.New("guest not found")
	ErrEventMismatch  = errors.New("guest does not belong to selected event")
	ErrNoCheckin      = errors.New("no check-in to undo")
	ErrInvalidStatus  = errors.New("status must be accepted/declined/pending")
	ErrUserExists     = errors.New("user already exists")
	ErrBadCredentials = errors.New("invalid username or password")
	ErrSessionInvalid = errors.New("invalid or expired session")
)

// AlreadyCheckedInError carries when the existing check-in happened so the
// conflict response can echo it.
type AlreadyCheckedInError struct {
	At time.Time
}

func (e *AlreadyCheckedInError) Error() string {
	return fmt.Sprintf("already checked in at %s", e.At.Format(time.RFC3339))
}
