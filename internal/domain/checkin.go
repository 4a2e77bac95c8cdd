package domain

import "time"

const (
	MethodQRCode = "QR Code"
	MethodBulk   = "Bulk Check-in"
)

type Checkin struct {
	ID      int64     `json:"id"`
	GuestID int64     `json:"guest_id"`
	Time    time.Time `json:"time"`
	Gate    *string   `json:"gate"`
	Staff   *string   `json:"staff"`
	Method  string    `json:"method"`
}

// BulkResult reports how many guests a bulk transition touched and which
// ones were already in the target state.
type BulkResult struct {
	Count   int     `json:"count"`
	Skipped []int64 `json:"skipped,omitempty"`
}
