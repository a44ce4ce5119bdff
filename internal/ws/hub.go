package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"ZapDesk/internal/lib/sl"
	"ZapDesk/internal/realtime"
)

// ClientMessageHandler handles incoming WebSocket messages from console
// clients.
type ClientMessageHandler interface {
	HandleMarkRead(ctx context.Context, username, conversationID string) error
}

// ChangeSink observes relayed change-feed events before they are
// broadcast, so session caches stay in step with connected clients.
type ChangeSink interface {
	ApplyChange(event realtime.Event)
}

// Frame is one WebSocket event pushed to console clients.
type Frame struct {
	Type string `json:"type"` // "change", "connected"
	Data any    `json:"data"`
}

// Hub maintains the set of active WebSocket clients and fans change-feed
// events out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *Frame
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	handler    ClientMessageHandler
	sink       ChangeSink
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Frame, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log.With(sl.Module("ws.hub")),
	}
}

// SetHandler sets the handler for incoming client messages.
func (h *Hub) SetHandler(handler ClientMessageHandler) {
	h.handler = handler
}

// SetSink sets the observer relayed change events are fed to.
func (h *Hub) SetSink(sink ChangeSink) {
	h.sink = sink
}

// Run starts the hub's event loop. Should be called in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case frame := <-h.broadcast:
			data, err := json.Marshal(frame)
			if err != nil {
				continue
			}
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Relay consumes a change-feed subscription and broadcasts every event
// until the subscription closes or ctx is cancelled. Should be called in
// a goroutine; it closes the subscription on the way out.
func (h *Hub) Relay(ctx context.Context, sub *realtime.Subscription) {
	defer sub.Close()

	for {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if h.sink != nil {
				h.sink.ApplyChange(event)
			}
			h.broadcast <- &Frame{Type: "change", Data: event}
		case <-ctx.Done():
			return
		}
	}
}

// clientEvent is one incoming WebSocket message from a console client.
type clientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// HandleClientMessage parses and dispatches an incoming client message.
func (h *Hub) HandleClientMessage(username string, raw []byte) {
	if h.handler == nil {
		return
	}

	var event clientEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		h.log.Warn("drop malformed client message", sl.Err(err))
		return
	}

	switch event.Type {
	case "mark_read":
		var data struct {
			ConversationID string `json:"conversation_id"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil {
			h.log.Warn("drop malformed mark_read", sl.Err(err))
			return
		}
		if data.ConversationID == "" {
			return
		}
		if err := h.handler.HandleMarkRead(context.Background(), username, data.ConversationID); err != nil {
			h.log.Error("mark_read failed",
				slog.String("username", username),
				slog.String("conversation_id", data.ConversationID),
				sl.Err(err),
			)
		}
	}
}
