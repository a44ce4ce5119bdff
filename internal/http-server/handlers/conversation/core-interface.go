package conversation

import (
	"context"

	"ZapDesk/entity"
)

type Core interface {
	ListConversations(ctx context.Context, f entity.ConversationFilters) (*entity.ConversationPage, error)
	OpenConversation(ctx context.Context, conversationID string) ([]entity.Message, error)
}

type Assigner interface {
	Assign(ctx context.Context, conversationID, agentID, byID, reason string) error
	Unassign(ctx context.Context, conversationID, byID string) error
	History(ctx context.Context, conversationID string) ([]entity.AssignmentRecord, error)
}

type Annotator interface {
	SetStatus(ctx context.Context, conversationID, status string) error
	AddNote(ctx context.Context, conversationID, authorID, content string) (*entity.ConversationNote, error)
	Notes(ctx context.Context, conversationID string) ([]entity.ConversationNote, error)
	PinNote(ctx context.Context, noteID string, pinned bool) error
	DeleteNote(ctx context.Context, noteID string) error
	SetContactNotes(ctx context.Context, conversationID, notes string) error
	Export(ctx context.Context, conversationID, format string) ([]byte, string, error)
}

type Insights interface {
	Categorize(ctx context.Context, conversationID string) (*entity.ConversationMetadata, error)
	Summarize(ctx context.Context, conversationID string) (*entity.ConversationSummary, error)
	Summaries(ctx context.Context, conversationID string) ([]entity.ConversationSummary, error)
}
