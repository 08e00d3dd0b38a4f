package config

import "net/url"

const (
	providerURLVar    = "PROVIDER_URL"
	providerKeyVar    = "PROVIDER_KEY"
	providerSecretVar = "PROVIDER_SECRET"
)

type Provider struct{}

var _ ProviderConfig = Provider{}

func (Provider) GetProviderURL() string {
	return GetEnv(providerURLVar, "")
}

func (Provider) GetProviderKey() string {
	return GetEnv(providerKeyVar, "")
}

// GetProviderSecret returns the optional client secret. Public clients using
// PKCE leave it empty.
func (Provider) GetProviderSecret() string {
	return GetEnv(providerSecretVar, "")
}

func (p Provider) ProviderConfigured() bool {
	rawURL := p.GetProviderURL()
	if rawURL == "" || p.GetProviderKey() == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
