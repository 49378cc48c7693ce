// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"gatehouse/internal/domain/entity"
)

// --- Input DTOs ---

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Password string
}

// RegisterInput defines the data required to register a password account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// --- Output DTOs ---

// LoginOutput carries a fresh access token and the rotated refresh token.
type LoginOutput struct {
	AccessToken  *entity.AccessToken
	RefreshToken string
	User         *entity.User
}

// Payload returns the response body handed to the client; the refresh token travels in a cookie.
func (o *LoginOutput) Payload() entity.JwtPayload {
	return entity.JwtPayload{
		AccessToken: o.AccessToken.Token,
		User:        o.User.Summary(),
	}
}

// OAuthLoginOutput carries only the refresh token. The client exchanges it for an access token.
type OAuthLoginOutput struct {
	RefreshToken string
	User         *entity.User
}

// --- Component contracts ---

// CredentialVerifier checks an email/password pair against the stored bcrypt hash.
type CredentialVerifier interface {
	ValidateCredentials(ctx context.Context, email, password string) (*entity.User, error)
}

// RefreshTokenStore issues, validates and revokes persisted refresh tokens.
// Issue keeps at most one non-revoked token per user.
type RefreshTokenStore interface {
	Issue(ctx context.Context, userID int64) (string, error)
	Validate(ctx context.Context, token string) (*entity.User, error)
	Revoke(ctx context.Context, token string) error
	RevokeAll(ctx context.Context, userID int64) error
	SweepExpired(ctx context.Context) (int64, error)
}

// OAuthIdentityResolver maps a federated profile to a local user, creating one on first sight.
type OAuthIdentityResolver interface {
	ResolveOrCreate(ctx context.Context, profile *entity.OAuthProfile) (*entity.User, error)
}

// AuthUsecase defines the authentication flows exposed to the delivery layer.
type AuthUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*entity.User, error)
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)
	OAuthLogin(ctx context.Context, profile *entity.OAuthProfile) (*OAuthLoginOutput, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginOutput, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userID int64) error
	CurrentUser(ctx context.Context, userID int64) (*entity.User, error)
	SweepExpiredTokens(ctx context.Context) (int64, error)
}
