package domain

import "time"

// OneTimeCode is an issued login passcode. Issuing a new code for an email
// invalidates all prior codes for it, so at most one active (unused,
// unexpired) code exists per email. A code flips used=false -> used=true
// exactly once.
type OneTimeCode struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}
