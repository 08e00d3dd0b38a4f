package feednats

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"linkstash/bookmarks"
)

func testEvent() bookmarks.Event {
	return bookmarks.Event{
		Kind:     bookmarks.EventInsert,
		Bookmark: bookmarks.Bookmark{ID: uuid.New(), OwnerID: "user-1"},
	}
}

func TestSubscriptionDeliversUntilClosed(t *testing.T) {
	sub := &subscription{events: make(chan bookmarks.Event, subscriptionBuffer)}

	event := testEvent()
	sub.deliver(event)

	got, open := <-sub.Events()
	require.True(t, open)
	require.Equal(t, event.Bookmark.ID, got.Bookmark.ID)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close()) // idempotent

	// The events channel is closed and later deliveries are dropped
	sub.deliver(testEvent())
	_, open = <-sub.Events()
	require.False(t, open)
}

func TestSubscriptionDropsWhenBufferFull(t *testing.T) {
	sub := &subscription{events: make(chan bookmarks.Event, 1)}

	sub.deliver(testEvent())
	sub.deliver(testEvent()) // dropped, must not block

	require.Len(t, sub.events, 1)
	require.NoError(t, sub.Close())
}
