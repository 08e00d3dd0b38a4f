package server

import (
	"context"
	"sync"
	"time"

	"linkstash/bookmarks"
	"linkstash/bookmarks/engine"
)

// engineRegistry holds one running sync engine per signed-in user. All of a
// user's open tabs on this instance share the same engine; consistency with
// other instances flows through the live feed, never shared memory.
type engineRegistry struct {
	mu      sync.Mutex
	entries map[string]*engineEntry
	store   bookmarks.Store
	feed    bookmarks.Feed
	metrics *serverMetrics
}

// engineEntry pairs an engine with its one-time start. Concurrent Get calls
// for a fresh user all wait on the same Do, so none of them can observe the
// engine mid-fetch.
type engineEntry struct {
	engine *engine.Engine
	start  sync.Once
}

func newEngineRegistry(store bookmarks.Store, feed bookmarks.Feed, metrics *serverMetrics) *engineRegistry {
	return &engineRegistry{
		entries: make(map[string]*engineEntry),
		store:   store,
		feed:    feed,
		metrics: metrics,
	}
}

// Get returns the user's engine, starting one on first use. Start completes
// the authoritative fetch before any caller returns, so callers always
// observe a READY engine.
func (r *engineRegistry) Get(ctx context.Context, ownerID string) *engine.Engine {
	r.mu.Lock()
	entry, existed := r.entries[ownerID]
	if !existed {
		entry = &engineEntry{engine: engine.New(r.store, r.feed, ownerID)}
		r.entries[ownerID] = entry
	}
	r.mu.Unlock()

	entry.start.Do(func() {
		// Subscription lifetime is the engine's, not this request's
		entry.engine.Start(context.WithoutCancel(ctx))
		r.metrics.activeEngines.Set(float64(r.count()))
	})

	if existed {
		entry.engine.Touch()
	}
	return entry.engine
}

// Close releases the engine for one user, if any.
func (r *engineRegistry) Close(ownerID string) {
	r.mu.Lock()
	entry, ok := r.entries[ownerID]
	delete(r.entries, ownerID)
	r.mu.Unlock()

	if ok {
		entry.engine.Close()
		r.metrics.activeEngines.Set(float64(r.count()))
	}
}

// CloseIdle releases engines that have not served a user action recently.
func (r *engineRegistry) CloseIdle(maxIdle time.Duration) {
	r.mu.Lock()
	var idle []*engine.Engine
	for ownerID, entry := range r.entries {
		if entry.engine.IdleFor() > maxIdle {
			idle = append(idle, entry.engine)
			delete(r.entries, ownerID)
		}
	}
	r.mu.Unlock()

	for _, e := range idle {
		e.Close()
	}
	r.metrics.activeEngines.Set(float64(r.count()))
}

// CloseAll releases every engine; used on server shutdown.
func (r *engineRegistry) CloseAll() {
	r.mu.Lock()
	all := make([]*engine.Engine, 0, len(r.entries))
	for _, entry := range r.entries {
		all = append(all, entry.engine)
	}
	r.entries = make(map[string]*engineEntry)
	r.mu.Unlock()

	for _, e := range all {
		e.Close()
	}
	r.metrics.activeEngines.Set(0)
}

func (r *engineRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
