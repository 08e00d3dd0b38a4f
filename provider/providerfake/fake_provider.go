package providerfake

import (
	"context"
	"sync"

	apperrors "linkstash/internal/errors"
	"linkstash/provider"
	"linkstash/sessions"
)

var _ provider.Client = (*FakeProvider)(nil)

// FakeProvider is an in-memory identity provider for tests. Exchange codes
// are seeded with AddCode; anything else fails the way the real provider
// would.
type FakeProvider struct {
	mu           sync.Mutex
	codes        map[string]*sessions.Session
	refreshed    *sessions.Session
	signOutCalls []string
	signOutErr   error
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{codes: make(map[string]*sessions.Session)}
}

// AddCode registers a one-time exchange code resolving to the given session.
func (p *FakeProvider) AddCode(code string, session *sessions.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.codes[code] = session
}

// SetRefreshed sets the session handed out when a stale session is renewed.
func (p *FakeProvider) SetRefreshed(session *sessions.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshed = session
}

// SetSignOutErr makes SignOut fail.
func (p *FakeProvider) SetSignOutErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signOutErr = err
}

// SignOutCalls returns the user IDs SignOut was invoked for.
func (p *FakeProvider) SignOutCalls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.signOutCalls...)
}

func (p *FakeProvider) Enabled() bool { return true }

func (p *FakeProvider) AuthCodeURL(state, nonce, codeChallenge string) string {
	return "https://id.example.test/authorize?state=" + state
}

func (p *FakeProvider) Exchange(ctx context.Context, code, codeVerifier, expectedNonce string) (*sessions.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	session, ok := p.codes[code]
	if !ok {
		return nil, apperrors.ErrExchangeFailed
	}
	delete(p.codes, code)
	return session, nil
}

func (p *FakeProvider) CurrentUser(ctx context.Context, session *sessions.Session) (*provider.Identity, *sessions.Session, error) {
	if session == nil || session.UserID == "" {
		return nil, nil, apperrors.ErrNoIdentity
	}

	identity := &provider.Identity{ID: session.UserID, Email: session.Email}
	if !session.Stale() {
		return identity, nil, nil
	}

	p.mu.Lock()
	refreshed := p.refreshed
	p.mu.Unlock()

	if refreshed == nil {
		return nil, nil, apperrors.ErrSessionExpired
	}
	return identity, refreshed, nil
}

func (p *FakeProvider) SignOut(ctx context.Context, session *sessions.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if session != nil {
		p.signOutCalls = append(p.signOutCalls, session.UserID)
	}
	return p.signOutErr
}
