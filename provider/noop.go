package provider

import (
	"context"

	apperrors "linkstash/internal/errors"
	"linkstash/sessions"
)

// DisabledClient is the no-op variant used when provider configuration is
// absent or invalid. Every operation degrades safely: no panics, no network
// calls, every caller sees an anonymous world.
type DisabledClient struct{}

var _ Client = DisabledClient{}

func NewDisabledClient() DisabledClient {
	return DisabledClient{}
}

func (DisabledClient) Enabled() bool { return false }

func (DisabledClient) AuthCodeURL(state, nonce, codeChallenge string) string {
	return ""
}

func (DisabledClient) Exchange(ctx context.Context, code, codeVerifier, expectedNonce string) (*sessions.Session, error) {
	return nil, apperrors.ErrProviderDisabled
}

func (DisabledClient) CurrentUser(ctx context.Context, session *sessions.Session) (*Identity, *sessions.Session, error) {
	return nil, nil, apperrors.ErrProviderDisabled
}

func (DisabledClient) SignOut(ctx context.Context, session *sessions.Session) error {
	return nil
}
