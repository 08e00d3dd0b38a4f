package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"linkstash/bookmarks"
	"linkstash/server"
)

func seedBookmark(f *testFixture, title, bookmarkURL string) bookmarks.Bookmark {
	b := bookmarks.Bookmark{
		ID:        uuid.New(),
		OwnerID:   testUserID,
		Title:     title,
		URL:       bookmarkURL,
		CreatedAt: time.Now(),
	}
	f.repo.Seed(b)
	return b
}

func TestAddBookmarkAndRenderOnDashboard(t *testing.T) {
	f := setupTestFixture(t)
	cookie := f.sessionCookie(t, f.validSession())

	rec := f.postForm(t, "/bookmarks", url.Values{
		"title": {"  Go Blog  "},
		"url":   {"https://go.dev/blog"},
	}, withCookie(cookie))
	requireRedirect(t, rec, server.RouteHome)

	require.Equal(t, 1, f.repo.Len())

	home := f.do(t, http.MethodGet, "/", withCookie(cookie))
	require.Equal(t, http.StatusOK, home.Code)
	require.Contains(t, home.Body.String(), "Go Blog")
	require.Contains(t, home.Body.String(), "https://go.dev/blog")
}

func TestAddBookmarkRejectsBlankFields(t *testing.T) {
	f := setupTestFixture(t)
	cookie := f.sessionCookie(t, f.validSession())

	rec := f.postForm(t, "/bookmarks", url.Values{
		"title": {"   "},
		"url":   {"https://go.dev"},
	}, withCookie(cookie))
	requireRedirect(t, rec, "/?error=blank")

	require.Zero(t, f.repo.InsertCalls)
	require.Zero(t, f.repo.Len())
}

func TestAddBookmarkRequiresSession(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.postForm(t, "/bookmarks", url.Values{
		"title": {"Go Blog"},
		"url":   {"https://go.dev/blog"},
	})
	requireRedirect(t, rec, server.RouteLogin)
	require.Zero(t, f.repo.InsertCalls)
}

func TestDeleteBookmarkViaForm(t *testing.T) {
	f := setupTestFixture(t)
	cookie := f.sessionCookie(t, f.validSession())

	b := seedBookmark(f, "Go Blog", "https://go.dev/blog")

	rec := f.postForm(t, "/bookmarks/"+b.ID.String()+"/delete", nil, withCookie(cookie))
	requireRedirect(t, rec, server.RouteHome)
	require.Zero(t, f.repo.Len())
}

func TestDeleteBookmarkViaAPI(t *testing.T) {
	f := setupTestFixture(t)
	cookie := f.sessionCookie(t, f.validSession())

	b := seedBookmark(f, "Go Blog", "https://go.dev/blog")

	rec := f.do(t, http.MethodDelete, "/bookmarks/"+b.ID.String(), withCookie(cookie))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Zero(t, f.repo.Len())
}

func TestDeleteBookmarkRejectsMalformedID(t *testing.T) {
	f := setupTestFixture(t)
	cookie := f.sessionCookie(t, f.validSession())

	rec := f.do(t, http.MethodDelete, "/bookmarks/not-a-uuid", withCookie(cookie))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteAbsentBookmarkRedirectsHome(t *testing.T) {
	f := setupTestFixture(t)
	cookie := f.sessionCookie(t, f.validSession())

	rec := f.postForm(t, "/bookmarks/"+uuid.NewString()+"/delete", nil, withCookie(cookie))
	requireRedirect(t, rec, server.RouteHome)
}

func TestDeleteStoreFailureCountedAsError(t *testing.T) {
	f := setupTestFixture(t)
	cookie := f.sessionCookie(t, f.validSession())

	b := seedBookmark(f, "Go Blog", "https://go.dev/blog")
	f.repo.DeleteErr = errors.New("store down")

	// Still optimistic: the response is unchanged, only the counter differs
	rec := f.do(t, http.MethodDelete, "/bookmarks/"+b.ID.String(), withCookie(cookie))
	require.Equal(t, http.StatusNoContent, rec.Code)

	metrics := f.do(t, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, metrics.Code)
	require.Contains(t, metrics.Body.String(),
		`linkstash_bookmark_operations_total{op="delete",result="error"} 1`)
}

func TestEventsStreamsInitialSnapshot(t *testing.T) {
	f := setupTestFixture(t)
	cookie := f.sessionCookie(t, f.validSession())
	seedBookmark(f, "Go Blog", "https://go.dev/blog")

	ctx, cancel := context.WithCancel(context.Background())
	go cancel()

	rec := f.do(t, http.MethodGet, "/events", withCookie(cookie), func(r *http.Request) {
		*r = *r.WithContext(ctx)
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "event: bookmarks")
	require.Contains(t, rec.Body.String(), "Go Blog")
}
