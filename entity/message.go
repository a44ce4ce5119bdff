package entity

import (
	"time"
)

const (
	MessageText     = "text"
	MessageImage    = "image"
	MessageAudio    = "audio"
	MessageVideo    = "video"
	MessageDocument = "document"
)

const (
	StatusSending   = "sending"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

// Message is an append-only chat record. Edits overwrite Content but keep
// the first-ever text in OriginalContent and one EditHistoryEntry per edit.
type Message struct {
	ID              string     `json:"id"`
	ConversationID  string     `json:"conversation_id"`
	MessageID       string     `json:"message_id"` // gateway-side id
	RemoteJid       string     `json:"remote_jid"`
	Content         string     `json:"content"`
	MessageType     string     `json:"message_type"`
	MediaURL        string     `json:"media_url,omitempty"`
	MediaMimetype   string     `json:"media_mimetype,omitempty"`
	Status          string     `json:"status"` // "sending" | "sent" | "delivered" | "read"
	IsFromMe        bool       `json:"is_from_me"`
	QuotedMessageID *string    `json:"quoted_message_id,omitempty"`
	OriginalContent *string    `json:"original_content,omitempty"`
	EditedAt        *time.Time `json:"edited_at,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
	CreatedAt       time.Time  `json:"created_at"`
}

// EditHistoryEntry stores the content superseded by one edit.
type EditHistoryEntry struct {
	ID              string    `json:"id"`
	MessageID       string    `json:"message_id"`
	ConversationID  string    `json:"conversation_id"`
	PreviousContent string    `json:"previous_content"`
	EditedAt        time.Time `json:"edited_at"`
}

// MessageVersion is one element of a reconstructed edit chain.
type MessageVersion struct {
	Content  string    `json:"content"`
	EditedAt time.Time `json:"edited_at"`
	Current  bool      `json:"current"`
}
