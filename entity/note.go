package entity

import (
	"time"
)

// ConversationNote is an agent-authored note; pinned notes list first.
type ConversationNote struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	AuthorID       string    `json:"author_id"`
	Content        string    `json:"content"`
	Pinned         bool      `json:"pinned"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ConversationSummary is one stored AI (or heuristic) summary snapshot.
type ConversationSummary struct {
	ID              string    `json:"id"`
	ConversationID  string    `json:"conversation_id"`
	Summary         string    `json:"summary"`
	KeyPoints       []string  `json:"key_points,omitempty"`
	ActionItems     []string  `json:"action_items,omitempty"`
	SentimentAtTime string    `json:"sentiment_at_time,omitempty"`
	MessagesCount   int       `json:"messages_count"`
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	Source          string    `json:"source"` // "ai" | "heuristic"
	CreatedAt       time.Time `json:"created_at"`
}
