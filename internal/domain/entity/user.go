// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"
)

// User is the identity record every login path resolves to.
type User struct {
	ID             int64     // Database-assigned numeric identifier.
	Email          string    // Unique login identifier.
	FirstName      string    // Given name.
	LastName       string    // Family name.
	HashedPassword *string   // bcrypt hash; nil for accounts created through OAuth.
	IsOAuth        bool      // True when the account was created by a federated login.
	IsActive       bool      // Inactive accounts cannot log in with a password.
	PictureURL     string    // Avatar reported by the identity provider, if any.
	Bio            *string   // Optional free-form profile text.
	JoinedAt       time.Time // Timestamp of account creation.
	UpdatedAt      time.Time // Timestamp of the last modification.
}

// HasPassword reports whether the account can be verified with a password.
func (u *User) HasPassword() bool {
	return !u.IsOAuth && u.HashedPassword != nil && *u.HashedPassword != ""
}

// Summary returns the public view of the user that is embedded in token responses.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// UserSummary is the user shape returned to clients alongside an access token.
type UserSummary struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
