package entity

import (
	"time"
)

// RefreshToken is a persisted long-lived credential.
// The signed token string is stored verbatim so it can be revoked by value.
type RefreshToken struct {
	ID        int64     // Database-assigned numeric identifier.
	Token     string    // The signed refresh JWT handed to the client.
	UserID    int64     // Owning user; rows are removed together with the user.
	ExpiresAt time.Time // The token is unusable from this instant on.
	CreatedAt time.Time // Issue time.
	IsRevoked bool      // Set on logout, rotation, refresh use or detected expiry.
}

// IsUsable reports whether the token may still be exchanged at the given instant.
func (t *RefreshToken) IsUsable(now time.Time) bool {
	return !t.IsRevoked && t.ExpiresAt.After(now)
}
