package model

import "time"

// User is a registered Flash Gig account. Usernames are unique and never
// change after registration.
type User struct {
	ID           string    `json:"id"         db:"id"`
	Username     string    `json:"username"   db:"username"`
	PasswordHash string    `json:"-"          db:"hashed_password"` // bcrypt, or a legacy salted SHA-256 hex digest
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	// GitHubID links an account created through GitHub sign-in; 0 when
	// there is none.
	GitHubID int64 `json:"-" db:"github_id"`
}
