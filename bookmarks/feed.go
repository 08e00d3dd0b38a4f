package bookmarks

import "context"

// EventKind tags a live change event.
type EventKind string

const (
	EventInsert EventKind = "insert"
	EventDelete EventKind = "delete"
)

// Event is a single row-level change delivered over the live feed. Delete
// events may carry only the bookmark ID.
type Event struct {
	Kind     EventKind `json:"kind"`
	Bookmark Bookmark  `json:"bookmark"`
}

// Feed is the live change feed over the bookmarks table. Subscribers see
// every insert and delete published after they subscribed; there is no
// replay. Delivery order between publishers is not guaranteed, so consumers
// dedupe by bookmark ID.
type Feed interface {
	// Publish fans an event out to all current subscribers.
	Publish(ctx context.Context, event Event) error

	// Subscribe opens a subscription. The caller must Close it to release
	// the stream.
	Subscribe(ctx context.Context) (Subscription, error)
}

// Subscription is a scoped handle on the feed. Events is closed once the
// subscription is released.
type Subscription interface {
	Events() <-chan Event
	Close() error
}
