// Package ingest normalizes provider webhook events into store rows:
// inbound messages create their contact and conversation on first
// sight, delivery callbacks advance message status.
package ingest

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ZapDesk/entity"
	"ZapDesk/internal/lib/sl"
)

var ErrBadWebhookKey = errors.New("webhook key does not match instance")

// Repository is the store slice the ingest path writes through.
type Repository interface {
	GetInstance(ctx context.Context, id string) (*entity.Instance, error)
	GetInstanceSecret(ctx context.Context, instanceID string) (*entity.InstanceSecret, error)
	UpsertContact(ctx context.Context, c *entity.Contact) (*entity.Contact, error)
	GetOrCreateConversation(ctx context.Context, instanceID, contactID string) (*entity.Conversation, error)
	InsertMessage(ctx context.Context, m *entity.Message) (*entity.Message, error)
	UpdateMessageStatus(ctx context.Context, messageID, conversationID, status string) error
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With(sl.Module("service.ingest")),
	}
}

// InboundMessage is one normalized message event from the provider.
type InboundMessage struct {
	MessageID string
	RemoteJid string
	PushName  string
	FromMe    bool
	Type      string
	Content   string
	MediaURL  string
	Mimetype  string
	Timestamp time.Time
}

// StatusUpdate is one normalized delivery callback.
type StatusUpdate struct {
	MessageID string
	RemoteJid string
	Status    string
}

// Verify checks the webhook key a provider deployment was configured
// with. Mock instances accept anything.
func (s *Service) Verify(ctx context.Context, instanceID, key string) error {
	instance, err := s.repo.GetInstance(ctx, instanceID)
	if err != nil {
		return err
	}
	if instance.Mock() {
		return nil
	}

	secret, err := s.repo.GetInstanceSecret(ctx, instanceID)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(secret.ApiKey)) != 1 {
		return ErrBadWebhookKey
	}
	return nil
}

// RecordMessage persists an inbound (or device-echoed outbound) message,
// creating the contact and conversation on first sight. The contact name
// starts as the push name, falling back to the bare number until a
// profile sync corrects it.
func (s *Service) RecordMessage(ctx context.Context, instanceID string, in InboundMessage) (*entity.Message, error) {
	number := jidNumber(in.RemoteJid)
	if number == "" {
		return nil, fmt.Errorf("ingest: event has no usable remote jid %q", in.RemoteJid)
	}

	name := in.PushName
	if name == "" {
		name = number
	}
	contact, err := s.repo.UpsertContact(ctx, &entity.Contact{
		InstanceID:  instanceID,
		Name:        name,
		PhoneNumber: number,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert contact: %w", err)
	}

	conv, err := s.repo.GetOrCreateConversation(ctx, instanceID, contact.ID)
	if err != nil {
		return nil, fmt.Errorf("get or create conversation: %w", err)
	}

	msgType := in.Type
	if msgType == "" {
		msgType = entity.MessageText
	}
	status := entity.StatusDelivered
	if in.FromMe {
		status = entity.StatusSent
	}
	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	saved, err := s.repo.InsertMessage(ctx, &entity.Message{
		ConversationID: conv.ID,
		MessageID:      in.MessageID,
		RemoteJid:      in.RemoteJid,
		Content:        in.Content,
		MessageType:    msgType,
		MediaURL:       in.MediaURL,
		MediaMimetype:  in.Mimetype,
		Status:         status,
		IsFromMe:       in.FromMe,
		Timestamp:      ts,
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("inbound message recorded",
		slog.String("conversation_id", conv.ID),
		slog.String("message_id", saved.MessageID),
		slog.Bool("from_me", saved.IsFromMe),
	)
	return saved, nil
}

// RecordStatus advances a message through sent, delivered and read.
func (s *Service) RecordStatus(ctx context.Context, instanceID string, u StatusUpdate) error {
	status, ok := mapAck(u.Status)
	if !ok {
		// Unknown acks are dropped, not errors; providers add new ones.
		s.log.Debug("unknown delivery ack", slog.String("status", u.Status))
		return nil
	}

	number := jidNumber(u.RemoteJid)
	if number == "" {
		return fmt.Errorf("ingest: status event has no usable remote jid %q", u.RemoteJid)
	}
	contact, err := s.repo.UpsertContact(ctx, &entity.Contact{
		InstanceID:  instanceID,
		PhoneNumber: number,
	})
	if err != nil {
		return fmt.Errorf("upsert contact: %w", err)
	}
	conv, err := s.repo.GetOrCreateConversation(ctx, instanceID, contact.ID)
	if err != nil {
		return fmt.Errorf("get or create conversation: %w", err)
	}

	return s.repo.UpdateMessageStatus(ctx, u.MessageID, conv.ID, status)
}

// mapAck translates provider delivery acks onto stored statuses.
func mapAck(ack string) (string, bool) {
	switch strings.ToUpper(ack) {
	case "SERVER_ACK":
		return entity.StatusSent, true
	case "DELIVERY_ACK":
		return entity.StatusDelivered, true
	case "READ", "READ_ACK":
		return entity.StatusRead, true
	default:
		return "", false
	}
}

// jidNumber strips the server suffix from a WhatsApp jid.
func jidNumber(jid string) string {
	return strings.SplitN(jid, "@", 2)[0]
}
