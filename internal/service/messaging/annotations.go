package messaging

import (
	"context"
	"errors"
	"fmt"

	"ZapDesk/entity"
	"ZapDesk/internal/metrics"
)

var ErrEmptyEmoji = errors.New("reaction needs an emoji")

// React records an agent reaction. One emoji per reactor per message;
// reacting again with a different emoji replaces the previous one.
func (s *Service) React(ctx context.Context, conversationID, messageID, reactorJid, emoji string) (*entity.Reaction, error) {
	if emoji == "" {
		return nil, ErrEmptyEmoji
	}

	// The message must exist in this conversation before a reaction
	// attaches to it. Reactions key on the message row id, not the
	// provider id the URL carries.
	msg, err := s.repo.GetMessage(ctx, messageID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load message: %w", err)
	}

	saved, err := s.repo.UpsertReaction(ctx, &entity.Reaction{
		MessageID:      msg.ID,
		ConversationID: conversationID,
		ReactorJid:     reactorJid,
		Emoji:          emoji,
		IsFromMe:       true,
	})
	if err != nil {
		return nil, err
	}
	metrics.Reactions.Inc()
	return saved, nil
}

// Reactions lists every reaction in a conversation.
func (s *Service) Reactions(ctx context.Context, conversationID string) ([]entity.Reaction, error) {
	return s.repo.ListReactions(ctx, conversationID)
}

// AddNote attaches an internal note the contact never sees.
func (s *Service) AddNote(ctx context.Context, conversationID, authorID, content string) (*entity.ConversationNote, error) {
	if content == "" {
		return nil, errors.New("note has no content")
	}
	return s.repo.CreateNote(ctx, &entity.ConversationNote{
		ConversationID: conversationID,
		AuthorID:       authorID,
		Content:        content,
	})
}

// Notes lists a conversation's notes, pinned first.
func (s *Service) Notes(ctx context.Context, conversationID string) ([]entity.ConversationNote, error) {
	return s.repo.ListNotes(ctx, conversationID)
}

func (s *Service) PinNote(ctx context.Context, noteID string, pinned bool) error {
	return s.repo.SetNotePinned(ctx, noteID, pinned)
}

func (s *Service) DeleteNote(ctx context.Context, noteID string) error {
	return s.repo.DeleteNote(ctx, noteID)
}

// SetContactNotes replaces the free-form notes kept on the contact
// behind a conversation.
func (s *Service) SetContactNotes(ctx context.Context, conversationID, notes string) error {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}
	return s.repo.UpdateContactNotes(ctx, conv.ContactID, notes)
}
