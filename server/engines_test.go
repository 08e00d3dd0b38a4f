package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"linkstash/bookmarks"
	"linkstash/bookmarks/engine"
	"linkstash/bookmarks/feedmem"
	"linkstash/bookmarks/repofake"
)

// slowStore delays the initial fetch so concurrent Get calls overlap with a
// Start still in flight.
type slowStore struct {
	bookmarks.Store
	delay time.Duration
}

func (s slowStore) ListByOwner(ctx context.Context, ownerID string) ([]bookmarks.Bookmark, error) {
	time.Sleep(s.delay)
	return s.Store.ListByOwner(ctx, ownerID)
}

func TestGetConcurrentCallersObserveReadyEngine(t *testing.T) {
	repo := repofake.NewFakeBookmarkRepo()
	registry := newEngineRegistry(
		slowStore{Store: repo, delay: 50 * time.Millisecond},
		feedmem.NewBroker(),
		newServerMetrics(),
	)
	t.Cleanup(registry.CloseAll)

	const callers = 8
	states := make([]engine.State, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			states[i] = registry.Get(context.Background(), "user-1").State()
		}(i)
	}
	wg.Wait()

	for _, state := range states {
		require.Equal(t, engine.StateReady, state)
	}
	require.Equal(t, 1, repo.ListCalls)
	require.Equal(t, 1, registry.count())
}

func TestGetReturnsSameEnginePerUser(t *testing.T) {
	registry := newEngineRegistry(repofake.NewFakeBookmarkRepo(), feedmem.NewBroker(), newServerMetrics())
	t.Cleanup(registry.CloseAll)

	ctx := context.Background()
	first := registry.Get(ctx, "user-1")
	require.Same(t, first, registry.Get(ctx, "user-1"))
	require.NotSame(t, first, registry.Get(ctx, "user-2"))
	require.Equal(t, 2, registry.count())
}
