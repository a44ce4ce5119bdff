package entity

import (
	"time"
)

// Reaction is one emoji per (message, reactor) pair; a reactor changing
// their emoji replaces the row instead of duplicating it.
type Reaction struct {
	ID             string    `json:"id"`
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	ReactorJid     string    `json:"reactor_jid"`
	Emoji          string    `json:"emoji"`
	IsFromMe       bool      `json:"is_from_me"`
	CreatedAt      time.Time `json:"created_at"`
}
