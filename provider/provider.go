package provider

import (
	"context"

	"github.com/rs/zerolog/log"

	"linkstash/internal/config"
	"linkstash/sessions"
)

// Identity is the authenticated user as reported by the identity provider.
// Created by the provider at first sign-in; read-only here.
type Identity struct {
	ID    string // Provider subject, opaque and stable
	Email string // Display only
}

// Client is the identity provider boundary. Two variants exist: the
// OIDC-backed client and a disabled no-op selected at construction when the
// provider configuration is absent or malformed. Callers never need to know
// which one they hold.
type Client interface {
	// Enabled reports whether this client can perform the handshake.
	Enabled() bool

	// AuthCodeURL builds the provider redirect for the given flow state.
	AuthCodeURL(state, nonce, codeChallenge string) string

	// Exchange trades a one-time code for a Session, verifying the ID token
	// and its nonce.
	Exchange(ctx context.Context, code, codeVerifier, expectedNonce string) (*sessions.Session, error)

	// CurrentUser resolves the identity behind a session, silently renewing
	// the access token when stale. The second return value is the refreshed
	// session, or nil when no refresh happened.
	CurrentUser(ctx context.Context, session *sessions.Session) (*Identity, *sessions.Session, error)

	// SignOut revokes the session's tokens with the provider.
	SignOut(ctx context.Context, session *sessions.Session) error
}

// New selects the client variant for the given configuration. It never
// fails: a missing or unreachable provider yields the disabled variant and a
// warning, so the rest of the server keeps serving.
func New(ctx context.Context, cfg config.Config) Client {
	if !cfg.ProviderConfigured() {
		log.Warn().Msg("identity provider not configured, sign-in disabled")
		return NewDisabledClient()
	}

	client, err := NewOIDCClient(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Str("provider_url", cfg.GetProviderURL()).
			Msg("identity provider discovery failed, sign-in disabled")
		return NewDisabledClient()
	}
	return client
}
