// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered author.
//
// Accounts come from two places: the admin CLI (username + bcrypt password)
// and GitHub OAuth (GitHubID set, PasswordHash empty). Username is the public
// handle used in profile URLs, so it is unique.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	GitHubID     *int64    `json:"githubId"  db:"github_id"` // nil for password-only accounts
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
