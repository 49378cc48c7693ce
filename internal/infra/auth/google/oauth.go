package google

import (
	"net/http"
	"strings"

	"gatehouse/config"
	"gatehouse/internal/domain/entity"
	"gatehouse/internal/domain/service"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	gothgoogle "github.com/markbates/goth/providers/google"
	"github.com/pkg/errors"
)

// stateCookieMaxAge bounds how long the gothic session cookie survives; long enough for one consent round trip.
const stateCookieMaxAge = 300

// OAuthService handles the Google OAuth redirect flow on top of goth.
// The CSRF state lives in a short-lived gorilla session cookie owned by gothic.
type OAuthService struct {
	provider string
}

// NewOAuthService registers the Google provider with goth and installs the session store.
func NewOAuthService(cfg *config.Config) (service.OAuthService, error) {
	if cfg.GoogleOAuth == nil || cfg.GoogleOAuth.ClientID == "" || cfg.GoogleOAuth.ClientSecret == "" {
		return nil, errors.New("google oauth client id and secret must be provided")
	}

	sessionSecret := cfg.SecretKey.Access
	if cfg.OAuth != nil && cfg.OAuth.SessionSecret != "" {
		sessionSecret = cfg.OAuth.SessionSecret
	}
	if sessionSecret == "" {
		return nil, errors.New("oauth session secret must be provided")
	}

	store := sessions.NewCookieStore([]byte(sessionSecret))
	// Lax so the cookie survives the top-level redirect back from Google.
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   stateCookieMaxAge,
		HttpOnly: true,
		Secure:   cfg.SecureCookies(),
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store

	goth.UseProviders(gothgoogle.New(
		cfg.GoogleOAuth.ClientID,
		cfg.GoogleOAuth.ClientSecret,
		cfg.GoogleOAuth.RedirectURI,
		strings.Fields(cfg.GoogleOAuth.Scopes)...,
	))

	return &OAuthService{provider: entity.ProviderTypeGoogle.String()}, nil
}

// AuthURL stores a fresh state in the session cookie and returns Google's consent page URL.
func (s *OAuthService) AuthURL(w http.ResponseWriter, r *http.Request) (string, error) {
	authURL, err := gothic.GetAuthURL(w, s.withProvider(r))
	if err != nil {
		return "", errors.Wrap(err, "build google auth url")
	}

	return authURL, nil
}

// CompleteAuth validates the callback state, exchanges the code and maps the Google profile.
func (s *OAuthService) CompleteAuth(w http.ResponseWriter, r *http.Request) (*entity.OAuthProfile, error) {
	gothUser, err := gothic.CompleteUserAuth(w, s.withProvider(r))
	if err != nil {
		return nil, errors.Wrap(err, "complete google oauth")
	}

	return profileFromGothUser(gothUser)
}

// GetProvider returns the OAuth provider type
func (s *OAuthService) GetProvider() entity.ProviderType {
	return entity.ProviderTypeGoogle
}

// withProvider sets the provider query parameter gothic uses to pick the provider.
func (s *OAuthService) withProvider(r *http.Request) *http.Request {
	q := r.URL.Query()
	q.Set("provider", s.provider)
	r.URL.RawQuery = q.Encode()

	return r
}

func profileFromGothUser(u goth.User) (*entity.OAuthProfile, error) {
	email := strings.TrimSpace(u.Email)
	if email == "" {
		return nil, errors.New("google profile has no email")
	}

	firstName, lastName := u.FirstName, u.LastName
	if firstName == "" && lastName == "" {
		firstName, lastName = splitName(u.Name)
	}

	return &entity.OAuthProfile{
		Provider:    entity.ProviderTypeGoogle,
		Email:       strings.ToLower(email),
		FirstName:   firstName,
		LastName:    lastName,
		PictureURL:  u.AvatarURL,
		AccessToken: u.AccessToken,
	}, nil
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
