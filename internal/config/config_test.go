package config_test

import (
	"testing"

	"linkstash/internal/config"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("APP_NAME", "")
	t.Setenv("BASE_URL", "")
	t.Setenv("ENV", "")

	c := config.New()

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "Linkstash", c.GetAppName())
	require.Equal(t, "http://localhost:8080", c.GetBaseURL())
	require.Equal(t, "DEV", c.GetEnv())
}

func TestPortPrefixedWithColon(t *testing.T) {
	t.Setenv("PORT", "9999")
	require.Equal(t, ":9999", config.New().GetPort())

	t.Setenv("PORT", ":7777")
	require.Equal(t, ":7777", config.New().GetPort())
}

func TestProviderConfigured(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		key        string
		configured bool
	}{
		{"both present", "https://id.example.com", "anon-key", true},
		{"missing url", "", "anon-key", false},
		{"missing key", "https://id.example.com", "", false},
		{"both missing", "", "", false},
		{"malformed url", "not a url", "anon-key", false},
		{"non http scheme", "ftp://id.example.com", "anon-key", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("PROVIDER_URL", tc.url)
			t.Setenv("PROVIDER_KEY", tc.key)
			require.Equal(t, tc.configured, config.New().ProviderConfigured())
		})
	}
}
