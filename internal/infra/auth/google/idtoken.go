package google

import (
	"context"
	"log/slog"
	"strings"

	"gatehouse/config"
	"gatehouse/internal/domain/entity"
	"gatehouse/internal/domain/service"

	"github.com/pkg/errors"
	"google.golang.org/api/idtoken"
)

type validateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// AuthServiceImpl verifies Google ID tokens sent by clients that completed Google Sign-In themselves.
type AuthServiceImpl struct {
	clientID string
	validate validateFunc
	logger   *slog.Logger
}

// NewAuthService creates a new Google ID token verifier bound to the configured client id.
func NewAuthService(cfg *config.Config, logger *slog.Logger) service.OAuthAuthService {
	clientID := ""
	if cfg.GoogleOAuth != nil {
		clientID = cfg.GoogleOAuth.ClientID
	}

	return &AuthServiceImpl{
		clientID: clientID,
		validate: idtoken.Validate,
		logger:   logger,
	}
}

// VerifyIDToken implements service.OAuthAuthService interface
func (s *AuthServiceImpl) VerifyIDToken(ctx context.Context, idToken string) (*entity.OAuthProfile, error) {
	if s.clientID == "" {
		return nil, errors.New("google client id is not configured")
	}

	// idtoken checks the signature against Google's keys, the audience and expiry.
	payload, err := s.validate(ctx, idToken, s.clientID)
	if err != nil {
		s.logger.Warn("Google ID token rejected", slog.Any("error", err))

		return nil, errors.Wrap(err, "invalid ID token")
	}

	if payload.Issuer != "https://accounts.google.com" && payload.Issuer != "accounts.google.com" {
		return nil, errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	profile, err := profileFromClaims(payload.Claims)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Google ID token verified",
		slog.String("subject", payload.Subject),
		slog.String("email", profile.Email))

	return profile, nil
}

// GetProvider returns the OAuth provider type
func (s *AuthServiceImpl) GetProvider() entity.ProviderType {
	return entity.ProviderTypeGoogle
}

func profileFromClaims(claims map[string]any) (*entity.OAuthProfile, error) {
	email, _ := claims["email"].(string)
	if strings.TrimSpace(email) == "" {
		return nil, errors.New("ID token has no email")
	}

	if verified, _ := claims["email_verified"].(bool); !verified {
		return nil, errors.New("email not verified")
	}

	firstName, _ := claims["given_name"].(string)
	lastName, _ := claims["family_name"].(string)
	if firstName == "" && lastName == "" {
		name, _ := claims["name"].(string)
		firstName, lastName = splitName(name)
	}
	picture, _ := claims["picture"].(string)

	return &entity.OAuthProfile{
		Provider:   entity.ProviderTypeGoogle,
		Email:      strings.ToLower(strings.TrimSpace(email)),
		FirstName:  firstName,
		LastName:   lastName,
		PictureURL: picture,
	}, nil
}
