package chat

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ZapDesk/entity"
	"ZapDesk/internal/realtime"
)

// pendingState tracks one optimistic mutation through its lifecycle.
type pendingState int

const (
	statePending pendingState = iota
	stateConfirmed
	stateRejected
)

// Thread is the client-side cache of one conversation's messages. It
// supports the optimistic send pipeline (placeholder → confirmed or
// rolled back) and reconciliation against change-feed events. The store
// stays the source of truth; the thread only converges toward it.
type Thread struct {
	mu             sync.Mutex
	conversationID string
	messages       []entity.Message
	pending        map[string]pendingState // placeholder id → state
}

func NewThread(conversationID string, initial []entity.Message) *Thread {
	t := &Thread{
		conversationID: conversationID,
		messages:       append([]entity.Message(nil), initial...),
		pending:        make(map[string]pendingState),
	}
	t.sortLocked()
	return t
}

// AppendPending inserts an optimistic placeholder and returns it. The
// placeholder carries a temporary id, status sending, and the current
// timestamp so ordering holds while the real row is in flight.
func (t *Thread) AppendPending(content, messageType string, quotedMessageID *string) entity.Message {
	now := time.Now().UTC()
	placeholder := entity.Message{
		ID:              "temp-" + uuid.NewString(),
		ConversationID:  t.conversationID,
		Content:         content,
		MessageType:     messageType,
		Status:          entity.StatusSending,
		IsFromMe:        true,
		QuotedMessageID: quotedMessageID,
		Timestamp:       now,
		CreatedAt:       now,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, placeholder)
	t.pending[placeholder.ID] = statePending
	t.sortLocked()
	return placeholder
}

// Confirm replaces the placeholder with the refetched authoritative
// thread. Refetching rather than patching guarantees the cache matches
// the store even if events raced the send.
func (t *Thread) Confirm(placeholderID string, refreshed []entity.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, placeholderID)
	t.messages = append([]entity.Message(nil), refreshed...)
	t.sortLocked()
}

// Reject rolls the placeholder back; no partial state survives a failed
// send.
func (t *Thread) Reject(placeholderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.pending[placeholderID]; !ok {
		return
	}
	delete(t.pending, placeholderID)
	for i := range t.messages {
		if t.messages[i].ID == placeholderID {
			t.messages = append(t.messages[:i], t.messages[i+1:]...)
			break
		}
	}
}

// ApplyEvent folds one change-feed event into the cache. Inserts are
// deduplicated by message identity so the event for a just-confirmed
// send is not re-appended; updates merge by identity.
func (t *Thread) ApplyEvent(event realtime.Event) {
	if event.ConversationID != t.conversationID || len(event.Payload) == 0 {
		return
	}

	var msg entity.Message
	if err := json.Unmarshal(event.Payload, &msg); err != nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch event.Op {
	case realtime.OpInsert:
		for i := range t.messages {
			if t.messages[i].ID == msg.ID {
				t.messages[i] = msg
				return
			}
		}
		t.messages = append(t.messages, msg)
		t.sortLocked()
	case realtime.OpUpdate:
		for i := range t.messages {
			if t.messages[i].ID == msg.ID {
				t.messages[i] = msg
				return
			}
		}
	}
}

// Snapshot returns a copy of the thread ordered by timestamp ascending.
func (t *Thread) Snapshot() []entity.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]entity.Message(nil), t.messages...)
}

// PendingCount reports placeholders still awaiting confirmation.
func (t *Thread) PendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func (t *Thread) sortLocked() {
	sort.SliceStable(t.messages, func(i, j int) bool {
		return t.messages[i].Timestamp.Before(t.messages[j].Timestamp)
	})
}
