package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"linkstash/internal/config"
	apperrors "linkstash/internal/errors"
	"linkstash/sessions"
)

// OIDCClient talks to the identity provider over standard OIDC: discovery at
// construction, authorization-code exchange with PKCE, token refresh through
// the oauth2 token source.
type OIDCClient struct {
	provider           *oidc.Provider
	oauth2Config       *oauth2.Config
	verifier           *oidc.IDTokenVerifier
	revocationEndpoint string
}

var _ Client = (*OIDCClient)(nil)

func NewOIDCClient(ctx context.Context, cfg config.Config) (*OIDCClient, error) {
	oidcProvider, err := oidc.NewProvider(ctx, cfg.GetProviderURL())
	if err != nil {
		return nil, apperrors.Wrapf(err, "[NewOIDCClient] provider discovery")
	}

	// Optional endpoint, not part of core discovery
	var extra struct {
		RevocationEndpoint string `json:"revocation_endpoint"`
	}
	_ = oidcProvider.Claims(&extra)

	clientID := cfg.GetProviderKey()
	return &OIDCClient{
		provider: oidcProvider,
		oauth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: cfg.GetProviderSecret(),
			Endpoint:     oidcProvider.Endpoint(),
			RedirectURL:  strings.TrimSuffix(cfg.GetBaseURL(), "/") + "/auth/callback",
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email", oidc.ScopeOfflineAccess},
		},
		verifier:           oidcProvider.Verifier(&oidc.Config{ClientID: clientID}),
		revocationEndpoint: extra.RevocationEndpoint,
	}, nil
}

func (c *OIDCClient) Enabled() bool { return true }

func (c *OIDCClient) AuthCodeURL(state, nonce, codeChallenge string) string {
	return c.oauth2Config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

func (c *OIDCClient) Exchange(ctx context.Context, code, codeVerifier, expectedNonce string) (*sessions.Session, error) {
	oauth2Token, err := c.oauth2Config.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrExchangeFailed, "[OIDCClient Exchange] %v", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrExchangeFailed, "[OIDCClient Exchange] no id_token in response")
	}

	idToken, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrExchangeFailed, "[OIDCClient Exchange] id token verification: %v", err)
	}

	var claims struct {
		Nonce string `json:"nonce"`
		Sub   string `json:"sub"`
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrExchangeFailed, "[OIDCClient Exchange] extracting claims: %v", err)
	}
	if expectedNonce != "" && claims.Nonce != expectedNonce {
		return nil, apperrors.Wrapf(apperrors.ErrExchangeFailed, "[OIDCClient Exchange] nonce mismatch")
	}

	return &sessions.Session{
		UserID:       claims.Sub,
		Email:        claims.Email,
		AccessToken:  oauth2Token.AccessToken,
		RefreshToken: oauth2Token.RefreshToken,
		TokenExpiry:  oauth2Token.Expiry,
		CreatedAt:    time.Now(),
	}, nil
}

// CurrentUser returns the identity for a session. A fresh access token is
// trusted as-is; a stale one is renewed through the refresh token, and the
// renewed session is returned for the caller to propagate back to the
// client's cookie.
func (c *OIDCClient) CurrentUser(ctx context.Context, session *sessions.Session) (*Identity, *sessions.Session, error) {
	if session == nil || session.UserID == "" {
		return nil, nil, apperrors.ErrNoIdentity
	}

	if !session.Stale() {
		return &Identity{ID: session.UserID, Email: session.Email}, nil, nil
	}

	if session.RefreshToken == "" {
		return nil, nil, apperrors.ErrSessionExpired
	}

	token, err := c.oauth2Config.TokenSource(ctx, &oauth2.Token{
		RefreshToken: session.RefreshToken,
	}).Token()
	if err != nil {
		return nil, nil, apperrors.Wrapf(apperrors.ErrSessionExpired, "[OIDCClient CurrentUser] refresh: %v", err)
	}

	refreshed := &sessions.Session{
		UserID:       session.UserID,
		Email:        session.Email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenExpiry:  token.Expiry,
		CreatedAt:    session.CreatedAt,
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = session.RefreshToken
	}

	return &Identity{ID: session.UserID, Email: session.Email}, refreshed, nil
}

// SignOut revokes the refresh token when the provider advertises a
// revocation endpoint; otherwise it is a no-op. Callers treat the whole
// operation as fire-and-forget.
func (c *OIDCClient) SignOut(ctx context.Context, session *sessions.Session) error {
	if c.revocationEndpoint == "" || session == nil {
		return nil
	}

	tokenToRevoke := session.RefreshToken
	if tokenToRevoke == "" {
		tokenToRevoke = session.AccessToken
	}
	if tokenToRevoke == "" {
		return nil
	}

	form := url.Values{
		"token":     {tokenToRevoke},
		"client_id": {c.oauth2Config.ClientID},
	}
	if c.oauth2Config.ClientSecret != "" {
		form.Set("client_secret", c.oauth2Config.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.revocationEndpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return apperrors.Wrapf(err, "[OIDCClient SignOut] building request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return apperrors.Wrapf(err, "[OIDCClient SignOut] revocation request")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apperrors.Wrapf(apperrors.ErrInternal, "[OIDCClient SignOut] revocation status %d", resp.StatusCode)
	}
	return nil
}
