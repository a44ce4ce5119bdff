package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testFeed(t *testing.T) *Feed {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewFeed(rdb, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPublishSubscribe(t *testing.T) {
	feed := testFeed(t)
	ctx := context.Background()

	sub, err := feed.Subscribe(ctx, "messages")
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	payload, _ := json.Marshal(map[string]string{"content": "hi"})
	feed.Publish(ctx, Event{
		Table:          "messages",
		Op:             OpInsert,
		ID:             "m1",
		ConversationID: "c1",
		Payload:        payload,
	})

	select {
	case event := <-sub.Events():
		if event.Table != "messages" || event.Op != OpInsert || event.ID != "m1" {
			t.Errorf("event = %+v", event)
		}
		if event.ConversationID != "c1" {
			t.Errorf("conversation_id = %q", event.ConversationID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestSubscribeFiltersTables(t *testing.T) {
	feed := testFeed(t)
	ctx := context.Background()

	sub, err := feed.Subscribe(ctx, "messages")
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	feed.Publish(ctx, Event{Table: "conversations", Op: OpUpdate, ID: "c1"})
	feed.Publish(ctx, Event{Table: "messages", Op: OpInsert, ID: "m1"})

	select {
	case event := <-sub.Events():
		if event.Table != "messages" {
			t.Errorf("received event for unsubscribed table %q", event.Table)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	feed := testFeed(t)

	sub, err := feed.Subscribe(context.Background(), "messages")
	if err != nil {
		t.Fatal(err)
	}
	if err := sub.Close(); err != nil {
		t.Fatal(err)
	}
	if err := sub.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestSubscribeRequiresTables(t *testing.T) {
	feed := testFeed(t)
	if _, err := feed.Subscribe(context.Background()); err == nil {
		t.Fatal("expected error for empty table list")
	}
}

func TestTopic(t *testing.T) {
	if got := Topic("messages"); got != "changes.messages" {
		t.Errorf("Topic = %q", got)
	}
}
