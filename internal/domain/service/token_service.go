package service

import (
	"errors"
	"time"

	"gatehouse/internal/domain/entity"
)

// ErrTokenExpired reports a token whose signature and type verified but whose exp has passed.
var ErrTokenExpired = errors.New("token expired")

// RefreshClaims are the claims recovered from a verified refresh token.
type RefreshClaims struct {
	Subject   int64
	ExpiresAt time.Time
}

// TokenService defines the interface for generating and validating JWTs.
// This abstracts the details of token creation from the use cases.
type TokenService interface {
	// IssueAccessToken signs a short-lived access token for the user.
	IssueAccessToken(user *entity.User) (*entity.AccessToken, error)

	// ParseAccessToken verifies signature, expiry and type of an access token.
	ParseAccessToken(token string) (*entity.AccessClaims, error)

	// IssueRefreshToken signs a long-lived refresh token for the user.
	IssueRefreshToken(userID int64) (token string, expiresAt time.Time, err error)

	// ParseRefreshToken verifies signature, expiry and type of a refresh token.
	ParseRefreshToken(token string) (*RefreshClaims, error)

	// RefreshTokenTTL returns the configured lifetime of refresh tokens.
	RefreshTokenTTL() time.Duration
}
