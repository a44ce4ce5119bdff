// Package chat is the conversation synchronization layer: it loads the
// filtered list with its aggregates, resets unread badges on open, and
// reconciles thread caches against change-feed events and optimistic
// sends.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"ZapDesk/entity"
	"ZapDesk/internal/lib/sl"
	"ZapDesk/internal/realtime"
	"ZapDesk/internal/service/messaging"
)

// Repository is the slice of the store this service needs.
type Repository interface {
	ListConversationsPage(ctx context.Context, f entity.ConversationFilters) ([]entity.ConversationWithContact, error)
	CountConversations(ctx context.Context, f entity.ConversationFilters) (int, error)
	CountUnreadConversations(ctx context.Context, f entity.ConversationFilters) (int, error)
	ListConversationIDs(ctx context.Context, f entity.ConversationFilters) ([]string, error)
	LastMessageDirections(ctx context.Context, conversationIDs []string) (map[string]bool, error)
	ResetUnread(ctx context.Context, conversationID string) error
	ListMessages(ctx context.Context, conversationID string) ([]entity.Message, error)
}

// Sender pushes a staged message through the gateway and into the store.
type Sender interface {
	Send(ctx context.Context, p messaging.SendParams) (*entity.Message, error)
}

type Service struct {
	repo   Repository
	sender Sender
	log    *slog.Logger

	mu      sync.Mutex
	threads map[string]*Thread
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		log:     log.With(sl.Module("service.chat")),
		threads: make(map[string]*Thread),
	}
}

// SetSender wires the outbound pipeline the optimistic send goes
// through.
func (s *Service) SetSender(sender Sender) {
	s.sender = sender
}

// ListConversations returns one page plus aggregates computed over the
// whole filtered set. A conversation is waiting when its newest message
// exists and was not sent by the agent; ties on equal timestamps break
// by whichever row the store's descending sort yields first.
func (s *Service) ListConversations(ctx context.Context, f entity.ConversationFilters) (*entity.ConversationPage, error) {
	f.Normalize()

	page, err := s.repo.ListConversationsPage(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	total, err := s.repo.CountConversations(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count conversations: %w", err)
	}

	unread, err := s.repo.CountUnreadConversations(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}

	// Waiting count scans the unpaginated filtered set.
	ids, err := s.repo.ListConversationIDs(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list conversation ids: %w", err)
	}
	directions, err := s.repo.LastMessageDirections(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("last message directions: %w", err)
	}

	waiting := 0
	for _, id := range ids {
		if fromMe, ok := directions[id]; ok && !fromMe {
			waiting++
		}
	}

	for i := range page {
		if fromMe, ok := directions[page[i].ID]; ok {
			v := fromMe
			page[i].LastMessageFromMe = &v
		}
	}

	totalPages := (total + f.PageSize - 1) / f.PageSize

	return &entity.ConversationPage{
		Conversations: page,
		TotalCount:    total,
		TotalPages:    totalPages,
		UnreadCount:   unread,
		WaitingCount:  waiting,
	}, nil
}

// HandleMarkRead is the websocket variant of opening a conversation: it
// only resets the unread badge.
func (s *Service) HandleMarkRead(ctx context.Context, username, conversationID string) error {
	s.log.Debug("mark read",
		"username", username,
		"conversation_id", conversationID,
	)
	return s.repo.ResetUnread(ctx, conversationID)
}

// OpenConversation resets the unread badge and returns the thread. The
// reset happens before the message fetch so a fast-closing user never
// leaves a stale badge behind. The fetched thread becomes the session
// cache that later optimistic sends and feed events reconcile against.
func (s *Service) OpenConversation(ctx context.Context, conversationID string) ([]entity.Message, error) {
	if err := s.repo.ResetUnread(ctx, conversationID); err != nil {
		return nil, fmt.Errorf("reset unread: %w", err)
	}

	messages, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	t := NewThread(conversationID, messages)
	s.mu.Lock()
	s.threads[conversationID] = t
	s.mu.Unlock()

	return t.Snapshot(), nil
}

// thread returns the conversation's session cache, creating an empty one
// for sends into conversations nobody has opened yet.
func (s *Service) thread(conversationID string) *Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.threads[conversationID]; ok {
		return t
	}
	t := NewThread(conversationID, nil)
	s.threads[conversationID] = t
	return t
}

// Send stages an optimistic placeholder in the conversation's thread and
// pushes the message through the sender. A failed send rolls the
// placeholder back so no partial state survives; a successful one
// replaces the cache with the refetched authoritative thread.
func (s *Service) Send(ctx context.Context, p messaging.SendParams) (*entity.Message, error) {
	t := s.thread(p.ConversationID)
	placeholder := t.AppendPending(p.Content, p.MessageType, p.QuotedMessageID)

	saved, err := s.sender.Send(ctx, p)
	if err != nil {
		t.Reject(placeholder.ID)
		return nil, err
	}

	refreshed, err := s.repo.ListMessages(ctx, p.ConversationID)
	if err != nil {
		// The send landed. Drop the placeholder and let the change feed
		// deliver the real row.
		s.log.Warn("thread refresh after send failed", sl.Err(err))
		t.Reject(placeholder.ID)
		return saved, nil
	}
	t.Confirm(placeholder.ID, refreshed)

	return saved, nil
}

// ApplyChange folds one change-feed event into the open thread cache.
// Events for conversations nobody has open are dropped; the store stays
// the source of truth either way.
func (s *Service) ApplyChange(event realtime.Event) {
	if event.Table != "messages" {
		return
	}
	s.mu.Lock()
	t, ok := s.threads[event.ConversationID]
	s.mu.Unlock()
	if ok {
		t.ApplyEvent(event)
	}
}
