package model

// ProviderType classifies how a provider completes sign-in.
type ProviderType string

const (
	ProviderTypeCredentials ProviderType = "credentials"
	ProviderTypeEmail       ProviderType = "email"
	ProviderTypeOAuth       ProviderType = "oauth"
)

// Provider describes a configured sign-in method.
type Provider struct {
	ID   string
	Name string
	Type ProviderType
}

// SupportsReturn reports whether the provider can report the sign-in outcome
// back to the caller instead of forcing a browser redirect.
func (p Provider) SupportsReturn() bool {
	return p.Type == ProviderTypeCredentials || p.Type == ProviderTypeEmail
}
