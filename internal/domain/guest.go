package domain

import "time"

type RSVPStatus string

const (
	RSVPPending  RSVPStatus = "pending"
	RSVPAccepted RSVPStatus = "accepted"
	RSVPDeclined RSVPStatus = "declined"
)

func ParseRSVPStatus(s string) (RSVPStatus, bool) {
	switch RSVPStatus(s) {
	case RSVPPending, RSVPAccepted, RSVPDeclined:
		return RSVPStatus(s), true
	default:
		return "", false
	}
}

type CheckinStatus string

const (
	NotArrived CheckinStatus = "not_arrived"
	Arrived    CheckinStatus = "arrived"
)

type Guest struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Title         string        `json:"title"`
	Role          string        `json:"role"`
	Organization  string        `json:"organization"`
	Tag           string        `json:"tag"`
	Email         *string       `json:"email"`
	Phone         *string       `json:"phone"`
	RSVPStatus    RSVPStatus    `json:"rsvp_status"`
	CheckinStatus CheckinStatus `json:"checkin_status"`
	EventID       *int64        `json:"event_id"`
	EventName     *string       `json:"event_name"`
	CreatedAt     time.Time     `json:"created_at"`
}

type GuestReq struct {
	Name          string `json:"name"`
	Title         string `json:"title"`
	Role          string `json:"role"`
	Organization  string `json:"organization"`
	Tag           string `json:"tag"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	CheckinStatus string `json:"checkin_status"`
	EventID       *int64 `json:"event_id"`
}

// CheckedInGuest is a guest row joined with its check-in record.
type CheckedInGuest struct {
	Guest
	CheckedInAt   time.Time `json:"checked_in_at"`
	CheckinMethod string    `json:"checkin_method"`
	Gate          *string   `json:"gate"`
	Staff         *string   `json:"staff"`
}

// ImportResult accumulates per-row outcomes; a bad row never aborts the batch.
type ImportResult struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors"`
}
