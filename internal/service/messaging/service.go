// Package messaging owns the outbound pipeline: sends through the
// gateway, the time-boxed edit workflow, reactions and notes.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ZapDesk/entity"
	"ZapDesk/internal/gateway"
	"ZapDesk/internal/lib/sl"
	"ZapDesk/internal/metrics"
)

// EditWindow is how long after sending a message stays editable.
const EditWindow = 15 * time.Minute

var (
	ErrEditWindowClosed = errors.New("messages can only be edited up to 15 minutes after sending")
	ErrNotOwnMessage    = errors.New("only your own messages can be edited")
	ErrEmptyMessage     = errors.New("message has no content")
	ErrMissingMedia     = errors.New("media messages need a mediaUrl or mediaBase64")
)

// Repository is the store surface the pipeline mutates.
type Repository interface {
	GetConversation(ctx context.Context, id string) (*entity.Conversation, error)
	GetContact(ctx context.Context, id string) (*entity.Contact, error)
	GetInstance(ctx context.Context, id string) (*entity.Instance, error)
	GetInstanceSecret(ctx context.Context, instanceID string) (*entity.InstanceSecret, error)
	InsertMessage(ctx context.Context, m *entity.Message) (*entity.Message, error)
	GetMessage(ctx context.Context, messageID, conversationID string) (*entity.Message, error)
	ApplyEdit(ctx context.Context, m *entity.Message, newContent string, editedAt time.Time) (*entity.Message, error)
	ListEditHistory(ctx context.Context, messageID string) ([]entity.EditHistoryEntry, error)
	UpsertReaction(ctx context.Context, r *entity.Reaction) (*entity.Reaction, error)
	ListReactions(ctx context.Context, conversationID string) ([]entity.Reaction, error)
	CreateNote(ctx context.Context, n *entity.ConversationNote) (*entity.ConversationNote, error)
	ListNotes(ctx context.Context, conversationID string) ([]entity.ConversationNote, error)
	SetNotePinned(ctx context.Context, noteID string, pinned bool) error
	DeleteNote(ctx context.Context, noteID string) error
	ListMessages(ctx context.Context, conversationID string) ([]entity.Message, error)
	UpdateConversationStatus(ctx context.Context, conversationID, status string) error
	UpdateContactNotes(ctx context.Context, contactID, notes string) error
}

// Gateway is the slice of the provider client the pipeline calls.
type Gateway interface {
	SendText(ctx context.Context, t gateway.Target, req gateway.SendTextRequest) (*gateway.SendResponse, error)
	SendMedia(ctx context.Context, t gateway.Target, req gateway.SendMediaRequest) (*gateway.SendResponse, error)
	UpdateMessage(ctx context.Context, t gateway.Target, remoteJid, messageID, newText string) error
}

type Service struct {
	repo Repository
	gw   Gateway
	now  func() time.Time
	log  *slog.Logger
}

func NewService(repo Repository, gw Gateway, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		gw:   gw,
		now:  func() time.Time { return time.Now().UTC() },
		log:  log.With(sl.Module("service.messaging")),
	}
}

// SendParams mirrors the send endpoint's contract.
type SendParams struct {
	ConversationID  string
	Content         string
	MessageType     string
	MediaURL        string
	MediaBase64     string
	MediaMimetype   string
	FileName        string
	QuotedMessageID *string
}

// Send pushes a message through the gateway and persists the result.
// Mock instances skip the provider entirely. A gateway failure leaves
// the store untouched so optimistic UI state can roll back cleanly.
func (s *Service) Send(ctx context.Context, p SendParams) (*entity.Message, error) {
	if p.MessageType == entity.MessageText && p.Content == "" {
		return nil, ErrEmptyMessage
	}
	if p.MessageType != entity.MessageText && p.MediaURL == "" && p.MediaBase64 == "" {
		return nil, ErrMissingMedia
	}

	conv, err := s.repo.GetConversation(ctx, p.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	contact, err := s.repo.GetContact(ctx, conv.ContactID)
	if err != nil {
		return nil, fmt.Errorf("load contact: %w", err)
	}
	instance, err := s.repo.GetInstance(ctx, conv.InstanceID)
	if err != nil {
		return nil, fmt.Errorf("load instance: %w", err)
	}

	content := p.Content
	if p.MessageType != entity.MessageText && content == "" {
		content = "Sent " + p.MessageType
	}

	msg := &entity.Message{
		ConversationID:  p.ConversationID,
		RemoteJid:       contact.PhoneNumber,
		Content:         content,
		MessageType:     p.MessageType,
		MediaURL:        p.MediaURL,
		MediaMimetype:   p.MediaMimetype,
		Status:          entity.StatusSent,
		IsFromMe:        true,
		QuotedMessageID: p.QuotedMessageID,
		Timestamp:       s.now(),
	}

	if instance.Mock() {
		msg.MessageID = "mock_" + uuid.NewString()
	} else {
		target, err := s.target(ctx, instance)
		if err != nil {
			return nil, err
		}

		var resp *gateway.SendResponse
		if p.MessageType == entity.MessageText {
			req := gateway.SendTextRequest{Number: contact.PhoneNumber, Text: p.Content}
			if p.QuotedMessageID != nil {
				req.QuotedMessageID = *p.QuotedMessageID
			}
			resp, err = s.gw.SendText(ctx, target, req)
		} else {
			media := p.MediaURL
			if media == "" {
				media = p.MediaBase64
			}
			resp, err = s.gw.SendMedia(ctx, target, gateway.SendMediaRequest{
				Number:    contact.PhoneNumber,
				MediaType: p.MessageType,
				Media:     media,
				Mimetype:  p.MediaMimetype,
				FileName:  p.FileName,
				Caption:   p.Content,
			})
		}
		if err != nil {
			metrics.MessagesSent.WithLabelValues(p.MessageType, "error").Inc()
			return nil, fmt.Errorf("gateway send: %w", err)
		}

		msg.MessageID = resp.Key.ID
		if resp.Key.RemoteJid != "" {
			msg.RemoteJid = resp.Key.RemoteJid
		}
	}

	saved, err := s.repo.InsertMessage(ctx, msg)
	if err != nil {
		metrics.MessagesSent.WithLabelValues(p.MessageType, "error").Inc()
		return nil, err
	}
	metrics.MessagesSent.WithLabelValues(p.MessageType, "ok").Inc()
	return saved, nil
}

func (s *Service) target(ctx context.Context, instance *entity.Instance) (gateway.Target, error) {
	secret, err := s.repo.GetInstanceSecret(ctx, instance.ID)
	if err != nil {
		return gateway.Target{}, fmt.Errorf("load instance secret: %w", err)
	}
	return gateway.Target{
		ApiURL:             secret.ApiURL,
		ApiKey:             secret.ApiKey,
		InstanceName:       instance.InstanceName,
		ProviderType:       instance.ProviderType,
		InstanceIDExternal: instance.InstanceIDExternal,
	}, nil
}

// SetStatus closes, archives or reopens a conversation.
func (s *Service) SetStatus(ctx context.Context, conversationID, status string) error {
	switch status {
	case entity.ConversationActive, entity.ConversationClosed, entity.ConversationArchived:
	default:
		return fmt.Errorf("unknown conversation status %q", status)
	}
	return s.repo.UpdateConversationStatus(ctx, conversationID, status)
}
