package feedmem

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"linkstash/bookmarks"
)

// subscriptionBuffer bounds how many undelivered events a single subscriber
// may accumulate before new ones are dropped. Losing an event is tolerable:
// consumers dedupe by ID and re-fetch on reload.
const subscriptionBuffer = 64

// Broker is the in-process implementation of the bookmark change feed, used
// when no NATS endpoint is configured and in tests.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscription
}

var _ bookmarks.Feed = (*Broker)(nil)

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]*subscription)}
}

func (b *Broker) Publish(ctx context.Context, event bookmarks.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		select {
		case sub.events <- event:
		default:
			log.Warn().Str("kind", string(event.Kind)).Msg("slow feed subscriber, event dropped")
		}
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context) (bookmarks.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	sub := &subscription{
		broker: b,
		id:     id,
		events: make(chan bookmarks.Event, subscriptionBuffer),
	}
	b.subs[id] = sub
	return sub, nil
}

func (b *Broker) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(sub.events)
}

type subscription struct {
	broker    *Broker
	id        int
	events    chan bookmarks.Event
	closeOnce sync.Once
}

func (s *subscription) Events() <-chan bookmarks.Event {
	return s.events
}

func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		s.broker.remove(s.id)
	})
	return nil
}
