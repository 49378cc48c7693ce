package service

import (
	"context"
	"net/http"

	"gatehouse/internal/domain/entity"
)

// OAuthService drives the browser redirect flow against an identity provider.
type OAuthService interface {
	// AuthURL starts a new flow and returns the provider's consent page URL.
	AuthURL(w http.ResponseWriter, r *http.Request) (string, error)

	// CompleteAuth finishes the callback leg and returns the federated profile.
	CompleteAuth(w http.ResponseWriter, r *http.Request) (*entity.OAuthProfile, error)

	// GetProvider returns the OAuth provider type
	GetProvider() entity.ProviderType
}

// OAuthAuthService defines the interface for OAuth authentication operations
// This is specifically for ID token verification (like Google ID tokens)
type OAuthAuthService interface {
	// VerifyIDToken verifies an OAuth ID token and returns the federated profile.
	// This is primarily used for Google Sign-In where the client sends an ID token directly
	VerifyIDToken(ctx context.Context, idToken string) (*entity.OAuthProfile, error)

	// GetProvider returns the OAuth provider type
	GetProvider() entity.ProviderType
}
