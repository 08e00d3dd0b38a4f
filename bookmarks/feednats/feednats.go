package feednats

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"linkstash/bookmarks"
	apperrors "linkstash/internal/errors"
)

// subject carries every bookmark change event. Plain core NATS pub/sub: a
// live feed wants fan-out to whoever is connected right now, not replay.
const subject = "linkstash.bookmarks.events"

const subscriptionBuffer = 64

// Feed is the NATS-backed change feed, used when multiple server instances
// share one bookmark store.
type Feed struct {
	conn *nats.Conn
}

var _ bookmarks.Feed = (*Feed)(nil)

// New connects to the NATS endpoint at url.
func New(url string, opts ...nats.Option) (*Feed, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[feednats New] connecting to %s", url)
	}
	return &Feed{conn: nc}, nil
}

// Close shuts down the underlying NATS connection.
func (f *Feed) Close() {
	if f == nil {
		return
	}
	if err := f.conn.Drain(); err != nil {
		f.conn.Close()
	}
}

func (f *Feed) Publish(ctx context.Context, event bookmarks.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return apperrors.Wrapf(err, "[feednats Publish] encoding event")
	}
	return f.conn.Publish(subject, data)
}

// Subscribe opens a subscription on the shared subject. Callers release it
// through Subscription.Close; the subscription does not watch ctx, whose
// lifetime may exceed the subscriber's.
func (f *Feed) Subscribe(ctx context.Context) (bookmarks.Subscription, error) {
	sub := &subscription{events: make(chan bookmarks.Event, subscriptionBuffer)}

	natsSub, err := f.conn.Subscribe(subject, func(msg *nats.Msg) {
		var event bookmarks.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Warn().Err(err).Msg("undecodable bookmark event dropped")
			return
		}
		sub.deliver(event)
	})
	if err != nil {
		return nil, apperrors.Wrapf(err, "[feednats Subscribe] subscribing to %s", subject)
	}
	sub.natsSub = natsSub

	return sub, nil
}

type subscription struct {
	natsSub *nats.Subscription
	events  chan bookmarks.Event

	mu     sync.Mutex
	closed bool
}

func (s *subscription) deliver(event bookmarks.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- event:
	default:
		log.Warn().Str("kind", string(event.Kind)).Msg("slow feed subscriber, event dropped")
	}
}

func (s *subscription) Events() <-chan bookmarks.Event {
	return s.events
}

func (s *subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.natsSub != nil {
		err = s.natsSub.Unsubscribe()
	}
	close(s.events)
	return err
}
