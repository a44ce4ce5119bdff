package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"ZapDesk/internal/lib/sl"
)

const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Event is one change notification for a store table.
type Event struct {
	Table          string          `json:"table"`
	Op             string          `json:"op"` // "insert" | "update" | "delete"
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// Topic returns the pub/sub channel for a table's change stream.
func Topic(table string) string {
	return "changes." + table
}

// Feed is the change-notification bus between the store and subscribed
// console sessions. Events for one table arrive in publish order.
type Feed struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewFeed(rdb *redis.Client, log *slog.Logger) *Feed {
	return &Feed{
		rdb: rdb,
		log: log.With(sl.Module("realtime.feed")),
	}
}

// Publish fans an event out to every subscriber of the table's topic.
// Failures are logged, not returned: the store write already succeeded
// and subscribers recover on their next full fetch.
func (f *Feed) Publish(ctx context.Context, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		f.log.Error("marshal event", sl.Err(err))
		return
	}
	if err := f.rdb.Publish(ctx, Topic(event.Table), data).Err(); err != nil {
		f.log.Error("publish event",
			slog.String("table", event.Table),
			slog.String("op", event.Op),
			sl.Err(err),
		)
	}
}

// Subscription is a live change-feed handle. Every Subscription must be
// closed when the owning session ends; Close is idempotent.
type Subscription struct {
	pubsub    *redis.PubSub
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// Subscribe opens a subscription on the given tables.
func (f *Feed) Subscribe(ctx context.Context, tables ...string) (*Subscription, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("realtime subscribe: no tables given")
	}

	topics := make([]string, len(tables))
	for i, t := range tables {
		topics[i] = Topic(t)
	}

	pubsub := f.rdb.Subscribe(ctx, topics...)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("realtime subscribe: %w", err)
	}

	sub := &Subscription{
		pubsub: pubsub,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}

	go sub.pump(f.log)

	return sub, nil
}

func (s *Subscription) pump(log *slog.Logger) {
	defer close(s.events)

	for msg := range s.pubsub.Channel() {
		var event Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Warn("drop malformed event", sl.Err(err))
			continue
		}
		select {
		case s.events <- event:
		case <-s.done:
			return
		}
	}
}

// Events returns the channel of incoming events. It is closed after Close.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close tears the subscription down and releases its goroutine.
func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}
