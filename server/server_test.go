package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"linkstash/bookmarks/feedmem"
	"linkstash/bookmarks/repofake"
	"linkstash/internal/config"
	"linkstash/provider"
	"linkstash/provider/providerfake"
	"linkstash/server"
	"linkstash/sessions"

	"github.com/stretchr/testify/require"
)

const (
	testCookieSecret = "test-secret"
	testUserID       = "user-1"
	testUserEmail    = "john.doe@example.com"
)

// testFixture holds a server wired to fake collaborators
type testFixture struct {
	server   *server.Server
	provider *providerfake.FakeProvider
	repo     *repofake.FakeBookmarkRepo
	broker   *feedmem.Broker
	cookies  *sessions.CookieCodec
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	t.Setenv("COOKIE_SECRET", testCookieSecret)
	t.Setenv("ENV", "test")

	repo := repofake.NewFakeBookmarkRepo()
	broker := feedmem.NewBroker()
	repo.SetFeed(broker)
	fakeProvider := providerfake.NewFakeProvider()

	srv := server.New(config.New(), fakeProvider, repo, broker)
	t.Cleanup(srv.Close)

	return &testFixture{
		server:   srv,
		provider: fakeProvider,
		repo:     repo,
		broker:   broker,
		cookies:  sessions.NewCookieCodec(testCookieSecret),
	}
}

// setupDisabledFixture builds a server whose provider configuration is
// absent, selecting the no-op client variant.
func setupDisabledFixture(t *testing.T) *testFixture {
	t.Helper()
	t.Setenv("COOKIE_SECRET", testCookieSecret)
	t.Setenv("ENV", "test")
	t.Setenv("PROVIDER_URL", "")
	t.Setenv("PROVIDER_KEY", "")

	cfg := config.New()
	require.False(t, cfg.ProviderConfigured())

	repo := repofake.NewFakeBookmarkRepo()
	broker := feedmem.NewBroker()
	srv := server.New(cfg, provider.New(context.Background(), cfg), repo, broker)
	t.Cleanup(srv.Close)

	return &testFixture{
		server:  srv,
		repo:    repo,
		broker:  broker,
		cookies: sessions.NewCookieCodec(testCookieSecret),
	}
}

func (f *testFixture) validSession() *sessions.Session {
	return &sessions.Session{
		UserID:       testUserID,
		Email:        testUserEmail,
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		TokenExpiry:  time.Now().Add(time.Hour),
		CreatedAt:    time.Now(),
	}
}

func (f *testFixture) sessionCookie(t *testing.T, session *sessions.Session) *http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	require.NoError(t, f.cookies.Write(rec, httptest.NewRequest(http.MethodGet, "/", nil), session))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func (f *testFixture) do(t *testing.T, method, target string, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest(method, target, nil)
	for _, opt := range opts {
		opt(r)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, r)
	return rec
}

func (f *testFixture) postForm(t *testing.T, target string, values url.Values, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, opt := range opts {
		opt(r)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, r)
	return rec
}

func withCookie(cookie *http.Cookie) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(cookie) }
}

func requireRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, location, rec.Header().Get("Location"))
}

// ---- Authorization gate ----

func TestGateRedirectsAnonymousFromHome(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodGet, "/")
	requireRedirect(t, rec, server.RouteLogin)
}

func TestGateRedirectsAuthenticatedFromLogin(t *testing.T) {
	f := setupTestFixture(t)
	cookie := f.sessionCookie(t, f.validSession())

	rec := f.do(t, http.MethodGet, "/login", withCookie(cookie))
	requireRedirect(t, rec, server.RouteHome)
}

func TestGatePassesThroughElsewhere(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/login")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Sign in")
}

func TestGatePropagatesRefreshedSession(t *testing.T) {
	f := setupTestFixture(t)

	stale := f.validSession()
	stale.TokenExpiry = time.Now().Add(-time.Minute)

	renewed := f.validSession()
	renewed.AccessToken = "renewed-access-token"
	f.provider.SetRefreshed(renewed)

	rec := f.do(t, http.MethodGet, "/", withCookie(f.sessionCookie(t, stale)))
	require.Equal(t, http.StatusOK, rec.Code)

	// The refreshed token material lands in the response cookie
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	got, err := f.cookies.Read(r)
	require.NoError(t, err)
	require.Equal(t, "renewed-access-token", got.AccessToken)
}

func TestGateClearsRejectedSession(t *testing.T) {
	f := setupTestFixture(t)

	stale := f.validSession()
	stale.TokenExpiry = time.Now().Add(-time.Minute)
	// No refreshed session registered: the provider rejects the refresh

	rec := f.do(t, http.MethodGet, "/", withCookie(f.sessionCookie(t, stale)))
	requireRedirect(t, rec, server.RouteLogin)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	require.Negative(t, cookies[len(cookies)-1].MaxAge)
}

// ---- Misconfigured provider ----

func TestDisabledProviderServesWithoutCrashing(t *testing.T) {
	f := setupDisabledFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/login")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "unavailable")

	rec = f.do(t, http.MethodGet, "/")
	requireRedirect(t, rec, server.RouteLogin)
}

func TestDisabledProviderInitiateRedirectsWithConfigError(t *testing.T) {
	f := setupDisabledFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/login")
	requireRedirect(t, rec, "/login?error=config")
}

func TestDisabledProviderCallbackRedirectsWithConfigError(t *testing.T) {
	f := setupDisabledFixture(t)

	rec := f.do(t, http.MethodGet, "/auth/callback?code=anything&state=anything")
	requireRedirect(t, rec, "/login?error=config")
}

func TestDisabledProviderTreatsSessionsAsAnonymous(t *testing.T) {
	f := setupDisabledFixture(t)
	cookie := f.sessionCookie(t, f.validSession())

	rec := f.do(t, http.MethodGet, "/", withCookie(cookie))
	requireRedirect(t, rec, server.RouteLogin)
}

// ---- Auth flow ----

// initiate runs the initiation step and returns the state parameter from
// the provider redirect.
func (f *testFixture) initiate(t *testing.T) string {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/auth/login")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	redirect, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := redirect.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestCallbackWithoutCode(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodGet, "/auth/callback")
	requireRedirect(t, rec, "/login?error=auth")
}

func TestCallbackWithProviderError(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodGet, "/auth/callback?error=access_denied&state=whatever")
	requireRedirect(t, rec, "/login?error=auth")
}

func TestCallbackWithUnknownState(t *testing.T) {
	f := setupTestFixture(t)
	f.provider.AddCode("good-code", f.validSession())

	rec := f.do(t, http.MethodGet, "/auth/callback?code=good-code&state=never-issued")
	requireRedirect(t, rec, "/login?error=auth")
}

func TestCallbackWithInvalidCode(t *testing.T) {
	f := setupTestFixture(t)
	state := f.initiate(t)

	rec := f.do(t, http.MethodGet, "/auth/callback?code=bad-code&state="+state)
	requireRedirect(t, rec, "/login?error=auth")
}

func TestCallbackSuccessEstablishesSession(t *testing.T) {
	f := setupTestFixture(t)
	f.provider.AddCode("good-code", f.validSession())
	state := f.initiate(t)

	rec := f.do(t, http.MethodGet, "/auth/callback?code=good-code&state="+state)
	requireRedirect(t, rec, server.RouteHome)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	// The established session opens the dashboard
	home := f.do(t, http.MethodGet, "/", withCookie(cookies[0]))
	require.Equal(t, http.StatusOK, home.Code)
	require.Contains(t, home.Body.String(), testUserEmail)
}

func TestCallbackStateIsSingleUse(t *testing.T) {
	f := setupTestFixture(t)
	f.provider.AddCode("good-code", f.validSession())
	f.provider.AddCode("second-code", f.validSession())
	state := f.initiate(t)

	requireRedirect(t, f.do(t, http.MethodGet, "/auth/callback?code=good-code&state="+state), server.RouteHome)
	requireRedirect(t, f.do(t, http.MethodGet, "/auth/callback?code=second-code&state="+state), "/login?error=auth")
}

// ---- Sign-out ----

func TestLogoutClearsSessionAndRedirects(t *testing.T) {
	f := setupTestFixture(t)
	cookie := f.sessionCookie(t, f.validSession())

	rec := f.do(t, http.MethodGet, "/auth/logout", withCookie(cookie))
	requireRedirect(t, rec, server.RouteLogin)

	require.Equal(t, []string{testUserID}, f.provider.SignOutCalls())

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	require.Negative(t, cookies[len(cookies)-1].MaxAge)
}

func TestLogoutRedirectsEvenWhenRevocationFails(t *testing.T) {
	f := setupTestFixture(t)
	f.provider.SetSignOutErr(context.DeadlineExceeded)
	cookie := f.sessionCookie(t, f.validSession())

	rec := f.do(t, http.MethodGet, "/auth/logout", withCookie(cookie))
	requireRedirect(t, rec, server.RouteLogin)
}

func TestLogoutWithoutSessionStillRedirects(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.do(t, http.MethodGet, "/auth/logout")
	requireRedirect(t, rec, server.RouteLogin)
	require.Empty(t, f.provider.SignOutCalls())
}
