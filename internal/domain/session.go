package domain

import "time"

// Session is an authenticated client session. The token is an opaque
// high-entropy bearer credential; a session is valid until its expiry or
// until the row is deleted on logout.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
