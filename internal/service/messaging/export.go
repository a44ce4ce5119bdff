package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"ZapDesk/entity"
	"ZapDesk/internal/lib/csvx"
)

const (
	ExportJSON = "json"
	ExportCSV  = "csv"
)

// ExportBundle is the JSON shape of a full conversation export.
type ExportBundle struct {
	ExportedAt   time.Time                 `json:"exported_at"`
	Conversation *entity.Conversation      `json:"conversation"`
	Contact      *entity.Contact           `json:"contact"`
	Messages     []entity.Message          `json:"messages"`
	Reactions    []entity.Reaction         `json:"reactions"`
	Notes        []entity.ConversationNote `json:"notes"`
}

// Export renders one conversation as a downloadable document. JSON
// carries the full bundle; CSV flattens the message log only.
func (s *Service) Export(ctx context.Context, conversationID, format string) ([]byte, string, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, "", fmt.Errorf("load conversation: %w", err)
	}
	contact, err := s.repo.GetContact(ctx, conv.ContactID)
	if err != nil {
		return nil, "", fmt.Errorf("load contact: %w", err)
	}
	messages, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, "", fmt.Errorf("list messages: %w", err)
	}

	switch format {
	case ExportCSV:
		rows := make([][]string, 0, len(messages))
		for _, m := range messages {
			direction := "contact"
			if m.IsFromMe {
				direction = "agent"
			}
			edited := ""
			if m.EditedAt != nil {
				edited = m.EditedAt.Format(time.RFC3339)
			}
			rows = append(rows, []string{
				m.Timestamp.Format(time.RFC3339),
				direction,
				m.MessageType,
				m.Content,
				m.Status,
				strconv.FormatBool(m.EditedAt != nil),
				edited,
			})
		}
		data, err := csvx.Write(
			[]string{"timestamp", "direction", "type", "content", "status", "edited", "edited_at"},
			rows,
		)
		if err != nil {
			return nil, "", err
		}
		return data, "text/csv", nil

	case ExportJSON, "":
		reactions, err := s.repo.ListReactions(ctx, conversationID)
		if err != nil {
			return nil, "", fmt.Errorf("list reactions: %w", err)
		}
		notes, err := s.repo.ListNotes(ctx, conversationID)
		if err != nil {
			return nil, "", fmt.Errorf("list notes: %w", err)
		}
		bundle := ExportBundle{
			ExportedAt:   s.now(),
			Conversation: conv,
			Contact:      contact,
			Messages:     messages,
			Reactions:    reactions,
			Notes:        notes,
		}
		data, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("marshal export: %w", err)
		}
		return data, "application/json", nil

	default:
		return nil, "", fmt.Errorf("unknown export format %q", format)
	}
}
