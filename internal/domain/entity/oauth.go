package entity

// ProviderType names an external identity provider.
type ProviderType string

// ProviderTypeGoogle is the only federated provider supported.
const ProviderTypeGoogle ProviderType = "google"

// String returns the string representation of the ProviderType.
func (p ProviderType) String() string {
	return string(p)
}

// OAuthProfile is the subset of a federated identity needed to resolve a local user.
type OAuthProfile struct {
	Provider    ProviderType
	Email       string
	FirstName   string
	LastName    string
	PictureURL  string
	AccessToken string // Provider access token; not persisted.
}
