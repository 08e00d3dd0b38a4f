package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"linkstash/bookmarks"
	apperrors "linkstash/internal/errors"
)

// State is the engine lifecycle phase.
type State int

const (
	StateLoading State = iota
	StateReady
)

// Engine keeps one user's bookmark collection consistent: an authoritative
// initial fetch, local mutations confirmed by the store, and a live feed
// subscription merging changes made elsewhere. The collection is a cache of
// the remote set, ordered newest first, never holding two entries with the
// same ID.
type Engine struct {
	ownerID string
	store   bookmarks.Store
	feed    bookmarks.Feed

	mu        sync.Mutex
	state     State
	items     []bookmarks.Bookmark
	sub       bookmarks.Subscription
	watchers  map[int]chan []bookmarks.Bookmark
	nextWatch int
	closed    bool
	lastTouch time.Time
}

// New creates an engine in the LOADING state. An empty ownerID is the
// unauthenticated display state: Start finalizes immediately with an empty
// collection and no subscription.
func New(store bookmarks.Store, feed bookmarks.Feed, ownerID string) *Engine {
	return &Engine{
		ownerID:   ownerID,
		store:     store,
		feed:      feed,
		state:     StateLoading,
		watchers:  make(map[int]chan []bookmarks.Bookmark),
		lastTouch: time.Now(),
	}
}

// Start performs the authoritative fetch, transitions to READY, then opens
// the live subscription. The fetch always completes (or fails) before any
// live event can be observed. A fetch or subscribe failure is logged and
// degrades to an empty collection or a feed-less engine; it never fails the
// caller.
func (e *Engine) Start(ctx context.Context) {
	if e.ownerID == "" {
		e.mu.Lock()
		e.state = StateReady
		e.mu.Unlock()
		return
	}

	items, err := e.store.ListByOwner(ctx, e.ownerID)
	if err != nil {
		log.Error().Err(err).Str("owner", e.ownerID).Msg("initial bookmark fetch failed")
		items = nil
	}

	e.mu.Lock()
	e.items = items
	e.state = StateReady
	e.mu.Unlock()
	e.notify()

	if e.feed == nil {
		return
	}
	sub, err := e.feed.Subscribe(ctx)
	if err != nil {
		log.Warn().Err(err).Str("owner", e.ownerID).Msg("live feed unavailable, engine runs without it")
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		_ = sub.Close()
		return
	}
	e.sub = sub
	e.mu.Unlock()

	go e.drain(sub)
}

func (e *Engine) drain(sub bookmarks.Subscription) {
	for event := range sub.Events() {
		e.apply(event)
	}
}

func (e *Engine) apply(event bookmarks.Event) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	changed := false
	switch event.Kind {
	case bookmarks.EventInsert:
		// Other owners' rows are not ours to cache; duplicates are the
		// echo of our own confirmed add.
		if event.Bookmark.OwnerID == e.ownerID && !e.hasLocked(event.Bookmark.ID) {
			e.items = append([]bookmarks.Bookmark{event.Bookmark}, e.items...)
			changed = true
		}
	case bookmarks.EventDelete:
		changed = e.removeLocked(event.Bookmark.ID)
	}
	e.mu.Unlock()

	if changed {
		e.notify()
	}
}

// Add validates, submits, and merges a new bookmark. Blank title or url
// (after trimming) is rejected locally without touching the store. There is
// no optimistic insert: the record joins the collection only once the store
// confirms it, and only if a racing live event has not merged it already.
func (e *Engine) Add(ctx context.Context, title, url string) (bookmarks.Bookmark, error) {
	e.touch()

	title = strings.TrimSpace(title)
	url = strings.TrimSpace(url)
	if title == "" || url == "" {
		return bookmarks.Bookmark{}, apperrors.ErrBlankField
	}

	created, err := e.store.Insert(ctx, e.ownerID, title, url)
	if err != nil {
		return bookmarks.Bookmark{}, apperrors.Wrapf(err, "[Engine Add] inserting bookmark")
	}

	e.mu.Lock()
	merged := false
	if !e.closed && !e.hasLocked(created.ID) {
		e.items = append([]bookmarks.Bookmark{created}, e.items...)
		merged = true
	}
	e.mu.Unlock()

	if merged {
		e.notify()
	}
	return created, nil
}

// Delete removes the bookmark locally first, then submits the delete. A
// store failure is logged and returned, and the local removal stands: the
// collection stays inconsistent with the backing store until the next full
// fetch. Accepted simplification, not a consistency guarantee.
func (e *Engine) Delete(ctx context.Context, id uuid.UUID) error {
	e.touch()

	e.mu.Lock()
	removed := e.removeLocked(id)
	e.mu.Unlock()
	if removed {
		e.notify()
	}

	if err := e.store.Delete(ctx, e.ownerID, id); err != nil {
		log.Warn().Err(err).Str("owner", e.ownerID).Str("bookmark", id.String()).
			Msg("bookmark delete failed after local removal, not rolled back")
		return apperrors.Wrapf(err, "[Engine Delete] deleting bookmark")
	}
	return nil
}

// Snapshot returns a copy of the current collection, newest first.
func (e *Engine) Snapshot() []bookmarks.Bookmark {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]bookmarks.Bookmark(nil), e.items...)
}

// State returns the lifecycle phase.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Watch registers for collection snapshots, delivered after every change.
// The channel holds only the latest snapshot; a slow consumer sees the most
// recent state, not every intermediate one. The returned release function
// must be called when done.
func (e *Engine) Watch() (<-chan []bookmarks.Bookmark, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextWatch
	e.nextWatch++

	ch := make(chan []bookmarks.Bookmark, 1)
	if !e.closed {
		e.watchers[id] = ch
	} else {
		close(ch)
	}

	return ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if w, ok := e.watchers[id]; ok {
			delete(e.watchers, id)
			close(w)
		}
	}
}

func (e *Engine) notify() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	snapshot := append([]bookmarks.Bookmark(nil), e.items...)
	for _, w := range e.watchers {
		// Latest snapshot wins; stale undelivered ones are discarded
		select {
		case w <- snapshot:
		default:
			select {
			case <-w:
			default:
			}
			select {
			case w <- snapshot:
			default:
			}
		}
	}
}

// Close releases the live subscription and watcher channels. Idempotent. No
// events are processed afterwards; in-flight store operations complete but
// their results are ignored.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	sub := e.sub
	e.sub = nil
	for id, w := range e.watchers {
		delete(e.watchers, id)
		close(w)
	}
	e.mu.Unlock()

	if sub != nil {
		_ = sub.Close()
	}
}

// IdleFor reports how long ago the engine last served a user action.
func (e *Engine) IdleFor() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return time.Since(e.lastTouch)
}

// Touch marks the engine as recently used so the owner can keep it alive.
func (e *Engine) Touch() {
	e.touch()
}

func (e *Engine) touch() {
	e.mu.Lock()
	e.lastTouch = time.Now()
	e.mu.Unlock()
}

func (e *Engine) hasLocked(id uuid.UUID) bool {
	for _, b := range e.items {
		if b.ID == id {
			return true
		}
	}
	return false
}

func (e *Engine) removeLocked(id uuid.UUID) bool {
	for i, b := range e.items {
		if b.ID == id {
			e.items = append(e.items[:i], e.items[i+1:]...)
			return true
		}
	}
	return false
}
