package repository

import (
	"context"
	"errors"
	"time"

	"gatehouse/internal/domain/entity"
)

// ErrRefreshTokenNotFound is returned when no non-revoked row matches a token.
var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// RefreshTokenRepository defines the persistence operations for refresh tokens.
type RefreshTokenRepository interface {
	// Create persists a new refresh token row.
	Create(ctx context.Context, token *entity.RefreshToken) error

	// FindActiveByToken retrieves the non-revoked row holding the given token string.
	// Expired rows are still returned; the caller decides what expiry means.
	FindActiveByToken(ctx context.Context, token string) (*entity.RefreshToken, error)

	// RevokeByToken marks the row holding the token as revoked. Missing rows are not an error.
	RevokeByToken(ctx context.Context, token string) error

	// RevokeAllByUserID marks every non-revoked token of the user as revoked.
	RevokeAllByUserID(ctx context.Context, userID int64) (int64, error)

	// DeleteExpired removes every row whose expiry is before the given instant, revoked or not.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)

	// CountActiveByUserID returns the number of non-revoked, unexpired tokens of the user.
	CountActiveByUserID(ctx context.Context, userID int64, now time.Time) (int64, error)
}
