package feedmem_test

import (
	"context"
	"testing"
	"time"

	"linkstash/bookmarks"
	"linkstash/bookmarks/feedmem"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func insertEvent() bookmarks.Event {
	return bookmarks.Event{
		Kind: bookmarks.EventInsert,
		Bookmark: bookmarks.Bookmark{
			ID:      uuid.New(),
			OwnerID: "user-1",
			Title:   "Example",
			URL:     "https://example.com",
		},
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	broker := feedmem.NewBroker()
	ctx := context.Background()

	subA, err := broker.Subscribe(ctx)
	require.NoError(t, err)
	subB, err := broker.Subscribe(ctx)
	require.NoError(t, err)

	event := insertEvent()
	require.NoError(t, broker.Publish(ctx, event))

	for _, sub := range []bookmarks.Subscription{subA, subB} {
		select {
		case got := <-sub.Events():
			require.Equal(t, event, got)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	broker := feedmem.NewBroker()
	ctx := context.Background()

	sub, err := broker.Subscribe(ctx)
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close()) // idempotent

	require.NoError(t, broker.Publish(ctx, insertEvent()))

	_, open := <-sub.Events()
	require.False(t, open)
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	broker := feedmem.NewBroker()
	ctx := context.Background()

	_, err := broker.Subscribe(ctx)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = broker.Publish(ctx, insertEvent())
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
