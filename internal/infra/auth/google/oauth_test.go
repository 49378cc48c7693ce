package google

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"gatehouse/config"
	"gatehouse/internal/domain/entity"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOAuthConfig() *config.Config {
	return &config.Config{
		SecretKey: config.SecretKeyConfig{Access: "access-secret"},
		GoogleOAuth: &config.GoogleOAuthConfig{
			ClientID:     "test_client_id",
			ClientSecret: "test_secret",
			RedirectURI:  "http://localhost:8080/auth/google/callback",
			Scopes:       "email profile",
		},
		OAuth: &config.OAuthRedirectConfig{SessionSecret: "session-secret"},
	}
}

func TestNewOAuthService_RequiresClientCredentials(t *testing.T) {
	cfg := newOAuthConfig()
	cfg.GoogleOAuth.ClientSecret = ""

	svc, err := NewOAuthService(cfg)
	assert.Error(t, err)
	assert.Nil(t, svc)

	cfg.GoogleOAuth = nil
	_, err = NewOAuthService(cfg)
	assert.Error(t, err)
}

func TestOAuthService_AuthURLPointsToGoogle(t *testing.T) {
	svc, err := NewOAuthService(newOAuthConfig())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/google", nil)
	rec := httptest.NewRecorder()
	location, err := svc.AuthURL(rec, req)

	require.NoError(t, err)
	assert.Contains(t, location, "accounts.google.com")
	assert.Contains(t, location, "client_id=test_client_id")
	assert.Contains(t, location, "state=")
	assert.NotEmpty(t, rec.Result().Cookies(), "state session cookie")
}

func TestOAuthService_CompleteAuthWithoutSession(t *testing.T) {
	svc, err := NewOAuthService(newOAuthConfig())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state=forged", nil)
	profile, err := svc.CompleteAuth(httptest.NewRecorder(), req)

	assert.Error(t, err)
	assert.Nil(t, profile)
}

func TestOAuthService_GetProvider(t *testing.T) {
	svc, err := NewOAuthService(newOAuthConfig())
	require.NoError(t, err)

	assert.Equal(t, entity.ProviderTypeGoogle, svc.GetProvider())
}

func TestProfileFromGothUser(t *testing.T) {
	tests := []struct {
		name      string
		user      goth.User
		expected  *entity.OAuthProfile
		expectErr bool
	}{
		{
			name: "structured names",
			user: goth.User{Email: "Ada@Example.com", FirstName: "Ada", LastName: "Lovelace", AvatarURL: "https://pic", AccessToken: "at"},
			expected: &entity.OAuthProfile{
				Provider: entity.ProviderTypeGoogle, Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace",
				PictureURL: "https://pic", AccessToken: "at",
			},
		},
		{
			name: "full name fallback",
			user: goth.User{Email: "grace@example.com", Name: "Grace Brewster Hopper"},
			expected: &entity.OAuthProfile{
				Provider: entity.ProviderTypeGoogle, Email: "grace@example.com", FirstName: "Grace", LastName: "Brewster Hopper",
			},
		},
		{
			name:      "missing email",
			user:      goth.User{Name: "No Mail"},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := profileFromGothUser(tt.user)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, profile)
		})
	}
}

func TestNewOAuthService_StateCookieSecureInProduction(t *testing.T) {
	cfg := newOAuthConfig()
	cfg.Cookie = &config.CookieConfig{Secure: false}

	_, err := NewOAuthService(cfg)
	require.NoError(t, err)
	store, ok := gothic.Store.(*sessions.CookieStore)
	require.True(t, ok)
	assert.False(t, store.Options.Secure)

	cfg.Env.Env = config.EnvProduction
	_, err = NewOAuthService(cfg)
	require.NoError(t, err)
	store, ok = gothic.Store.(*sessions.CookieStore)
	require.True(t, ok)
	assert.True(t, store.Options.Secure)
}
