package repofake

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"linkstash/bookmarks"
	apperrors "linkstash/internal/errors"
)

var _ bookmarks.Store = (*FakeBookmarkRepo)(nil)

// FakeBookmarkRepo is a thread-safe in-memory bookmark store for tests. It
// counts operations and can be wired to a feed to echo changes the way the
// real store does.
type FakeBookmarkRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]bookmarks.Bookmark
	feed    bookmarks.Feed
	clock   time.Time

	ListCalls   int
	InsertCalls int
	DeleteCalls int

	ListErr   error
	InsertErr error
	DeleteErr error
}

func NewFakeBookmarkRepo() *FakeBookmarkRepo {
	return &FakeBookmarkRepo{
		records: make(map[uuid.UUID]bookmarks.Bookmark),
		clock:   time.Now(),
	}
}

// SetFeed makes the repo publish insert/delete events after each successful
// mutation, mirroring the real store.
func (r *FakeBookmarkRepo) SetFeed(feed bookmarks.Feed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feed = feed
}

// Seed inserts a record directly, bypassing counters and the feed.
func (r *FakeBookmarkRepo) Seed(b bookmarks.Bookmark) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[b.ID] = b
}

func (r *FakeBookmarkRepo) ListByOwner(ctx context.Context, ownerID string) ([]bookmarks.Bookmark, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ListCalls++
	if r.ListErr != nil {
		return nil, r.ListErr
	}

	var out []bookmarks.Bookmark
	for _, b := range r.records {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *FakeBookmarkRepo) Insert(ctx context.Context, ownerID, title, url string) (bookmarks.Bookmark, error) {
	r.mu.Lock()

	r.InsertCalls++
	if r.InsertErr != nil {
		r.mu.Unlock()
		return bookmarks.Bookmark{}, r.InsertErr
	}

	// Monotonic timestamps so list order is deterministic in tests
	r.clock = r.clock.Add(time.Millisecond)
	created := bookmarks.Bookmark{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     title,
		URL:       url,
		CreatedAt: r.clock,
	}
	r.records[created.ID] = created
	feed := r.feed
	r.mu.Unlock()

	if feed != nil {
		_ = feed.Publish(ctx, bookmarks.Event{Kind: bookmarks.EventInsert, Bookmark: created})
	}
	return created, nil
}

func (r *FakeBookmarkRepo) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	r.mu.Lock()

	r.DeleteCalls++
	if r.DeleteErr != nil {
		r.mu.Unlock()
		return r.DeleteErr
	}

	record, ok := r.records[id]
	if !ok || record.OwnerID != ownerID {
		r.mu.Unlock()
		return apperrors.ErrBookmarkNotFound
	}
	delete(r.records, id)
	feed := r.feed
	r.mu.Unlock()

	if feed != nil {
		_ = feed.Publish(ctx, bookmarks.Event{Kind: bookmarks.EventDelete, Bookmark: record})
	}
	return nil
}

// Len reports how many records the repo holds, across all owners.
func (r *FakeBookmarkRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
