package entity

import (
	"time"
)

const (
	ConversationActive   = "active"
	ConversationClosed   = "closed"
	ConversationArchived = "archived"
)

// Conversation is one open thread between an instance and a contact.
// At most one conversation exists per (instance, contact) pair.
type Conversation struct {
	ID                 string                `json:"id"`
	InstanceID         string                `json:"instance_id"`
	ContactID          string                `json:"contact_id"`
	Status             string                `json:"status"` // "active" | "closed" | "archived"
	UnreadCount        int                   `json:"unread_count"`
	AssignedTo         *string               `json:"assigned_to,omitempty"`
	LastMessagePreview string                `json:"last_message_preview,omitempty"`
	LastMessageAt      *time.Time            `json:"last_message_at,omitempty"`
	Metadata           *ConversationMetadata `json:"metadata,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// ConversationWithContact joins a conversation with its contact and,
// when present, the assignee profile and the direction of the newest message.
type ConversationWithContact struct {
	Conversation
	Contact           Contact  `json:"contact"`
	AssignedProfile   *Profile `json:"assigned_profile,omitempty"`
	LastMessageFromMe *bool    `json:"last_message_from_me,omitempty"`
}

// ConversationMetadata is the versioned replacement for the free-form
// metadata blob: every field the console reads is an explicit column here
// so shape drift fails at compile time.
type ConversationMetadata struct {
	Version         int      `json:"version"`
	PrimaryTopic    string   `json:"primary_topic,omitempty"`
	SecondaryTopics []string `json:"secondary_topics,omitempty"`
	Confidence      float64  `json:"confidence,omitempty"`
	Reasoning       string   `json:"reasoning,omitempty"`
	CustomTopic     string   `json:"custom_topic,omitempty"`
	Sentiment       string   `json:"sentiment,omitempty"`
	CategorizedAt   *string  `json:"categorized_at,omitempty"`
}

// MetadataVersion is bumped whenever ConversationMetadata gains fields.
const MetadataVersion = 1
