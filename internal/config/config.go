package config

type Config interface {
	EnvConfig
	CorsConfig
	ProviderConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetDatabaseDSN() string
	GetNatsURL() string
	GetCookieSecret() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

// ProviderConfig exposes the identity provider settings. The provider is the
// only hard external dependency; ProviderConfigured reports whether the two
// required values are present and well formed so callers can degrade instead
// of failing.
type ProviderConfig interface {
	GetProviderURL() string
	GetProviderKey() string
	GetProviderSecret() string
	ProviderConfigured() bool
}

type mainConfig struct {
	EnvVars
	Cors
	Provider
}

func New() Config {
	return mainConfig{}
}
