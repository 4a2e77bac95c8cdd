package domain

import "time"

type TokenStatus string

const (
	TokenActive  TokenStatus = "active"
	TokenRevoked TokenStatus = "revoked"
)

type Token struct {
	ID        int64       `json:"id"`
	GuestID   int64       `json:"guest_id"`
	Token     string      `json:"token"`
	Status    TokenStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt *time.Time  `json:"expires_at"`
}

// IsExpired reports whether the token is past its expiry. Invitations never
// expire under current business rules: ExpiresAt stays nil.
func (t *Token) IsExpired() bool {
	return t.ExpiresAt != nil && time.Now().After(*t.ExpiresAt)
}
