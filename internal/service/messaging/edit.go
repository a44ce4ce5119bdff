package messaging

import (
	"context"
	"fmt"
	"time"

	"ZapDesk/entity"
	"ZapDesk/internal/metrics"
)

// EditMessage rewrites a sent message on the provider and in the store.
// Only agent-sent messages inside the edit window qualify; the history
// entry, the pinned original content and the new content land in one
// store transaction so a crash never leaves a half-edited message.
func (s *Service) EditMessage(ctx context.Context, conversationID, messageID, newContent string) (*entity.Message, error) {
	if newContent == "" {
		metrics.MessagesEdited.WithLabelValues("error").Inc()
		return nil, ErrEmptyMessage
	}

	msg, err := s.repo.GetMessage(ctx, messageID, conversationID)
	if err != nil {
		metrics.MessagesEdited.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load message: %w", err)
	}
	if !msg.IsFromMe {
		metrics.MessagesEdited.WithLabelValues("rejected").Inc()
		return nil, ErrNotOwnMessage
	}
	if s.now().Sub(msg.Timestamp) > EditWindow {
		metrics.MessagesEdited.WithLabelValues("rejected").Inc()
		return nil, ErrEditWindowClosed
	}

	conv, err := s.repo.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		metrics.MessagesEdited.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	instance, err := s.repo.GetInstance(ctx, conv.InstanceID)
	if err != nil {
		metrics.MessagesEdited.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load instance: %w", err)
	}

	// The provider edit goes first. If it fails nothing is recorded and
	// the message keeps its previous content.
	if !instance.Mock() {
		target, err := s.target(ctx, instance)
		if err != nil {
			metrics.MessagesEdited.WithLabelValues("error").Inc()
			return nil, err
		}
		if err := s.gw.UpdateMessage(ctx, target, msg.RemoteJid, msg.MessageID, newContent); err != nil {
			metrics.MessagesEdited.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("gateway edit: %w", err)
		}
	}

	edited, err := s.repo.ApplyEdit(ctx, msg, newContent, s.now())
	if err != nil {
		metrics.MessagesEdited.WithLabelValues("error").Inc()
		return nil, err
	}

	s.log.Info("message edited",
		"conversation_id", conversationID,
		"message_id", messageID,
	)
	metrics.MessagesEdited.WithLabelValues("ok").Inc()
	return edited, nil
}

// EditHistory reconstructs the full version chain of a message: the
// original content, every intermediate edit, and the current content.
func (s *Service) EditHistory(ctx context.Context, conversationID, messageID string) ([]entity.MessageVersion, error) {
	msg, err := s.repo.GetMessage(ctx, messageID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load message: %w", err)
	}

	// History rows key on the message row id, not the provider id the
	// URL carries.
	entries, err := s.repo.ListEditHistory(ctx, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("load edit history: %w", err)
	}

	versions := make([]entity.MessageVersion, 0, len(entries)+2)

	// Each history row carries the content an edit replaced; the first
	// row therefore holds the original text. OriginalContent covers the
	// case where the first history row was written before the pin.
	if msg.OriginalContent != nil &&
		(len(entries) == 0 || entries[0].PreviousContent != *msg.OriginalContent) {
		versions = append(versions, entity.MessageVersion{
			Content:  *msg.OriginalContent,
			EditedAt: msg.Timestamp,
		})
	}

	for _, e := range entries {
		versions = append(versions, entity.MessageVersion{
			Content:  e.PreviousContent,
			EditedAt: e.EditedAt,
		})
	}

	var editedAt time.Time
	if msg.EditedAt != nil {
		editedAt = *msg.EditedAt
	} else {
		editedAt = msg.Timestamp
	}
	versions = append(versions, entity.MessageVersion{
		Content:  msg.Content,
		EditedAt: editedAt,
		Current:  true,
	})

	return versions, nil
}
