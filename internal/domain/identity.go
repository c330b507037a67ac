package domain

import "time"

// Identity is a registered user. Records are soft-deleted only; at most one
// non-deleted Identity exists per email.
type Identity struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	DeletedAt   *time.Time `json:"-"`
}
