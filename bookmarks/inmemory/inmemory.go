package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"linkstash/bookmarks"
	apperrors "linkstash/internal/errors"
)

// Store is a map-backed bookmark store for single-instance deployments
// without a database. Contents do not survive a restart.
type Store struct {
	mu      sync.RWMutex
	records map[uuid.UUID]bookmarks.Bookmark
	feed    bookmarks.Feed
}

var _ bookmarks.Store = (*Store)(nil)

// NewStore creates an empty store that echoes mutations onto feed. A nil
// feed disables the echo.
func NewStore(feed bookmarks.Feed) *Store {
	return &Store{
		records: make(map[uuid.UUID]bookmarks.Bookmark),
		feed:    feed,
	}
}

func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]bookmarks.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []bookmarks.Bookmark
	for _, b := range s.records {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) Insert(ctx context.Context, ownerID, title, url string) (bookmarks.Bookmark, error) {
	created := bookmarks.Bookmark{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     title,
		URL:       url,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.records[created.ID] = created
	s.mu.Unlock()

	if s.feed != nil {
		_ = s.feed.Publish(ctx, bookmarks.Event{Kind: bookmarks.EventInsert, Bookmark: created})
	}
	return created, nil
}

func (s *Store) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	s.mu.Lock()
	record, ok := s.records[id]
	if !ok || record.OwnerID != ownerID {
		s.mu.Unlock()
		return apperrors.ErrBookmarkNotFound
	}
	delete(s.records, id)
	s.mu.Unlock()

	if s.feed != nil {
		_ = s.feed.Publish(ctx, bookmarks.Event{Kind: bookmarks.EventDelete, Bookmark: record})
	}
	return nil
}
