package entity

import "time"

// Token types carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// AccessToken is a freshly signed short-lived credential. It is never persisted.
type AccessToken struct {
	Token     string
	Claims    AccessClaims
	ExpiresAt time.Time
}

// AccessClaims are the identity claims embedded in an access token.
type AccessClaims struct {
	Subject  int64  // User ID.
	Username string // User email.
}

// JwtPayload is the response body of every flow that hands out an access token.
type JwtPayload struct {
	AccessToken string      `json:"accessToken"`
	User        UserSummary `json:"user"`
}
