package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	baseURLVar    = "BASE_URL"
	dbDSNVar      = "DATABASE_DSN"
	natsURLVar    = "NATS_URL"
	cookieKeyVar  = "COOKIE_SECRET"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Linkstash")
}

// GetBaseURL returns the public base URL of this server (e.g.
// "https://links.example.com"). It is used to build the OAuth callback
// address handed to the identity provider.
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:8080")
}

func (EnvVars) GetDatabaseDSN() string {
	return GetEnv(dbDSNVar, "")
}

func (EnvVars) GetNatsURL() string {
	return GetEnv(natsURLVar, "")
}

func (EnvVars) GetCookieSecret() string {
	return GetEnv(cookieKeyVar, "")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(key, defaultValue string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	return v
}
