package message

import (
	"context"

	"ZapDesk/entity"
	"ZapDesk/internal/service/messaging"
)

// Sender is the optimistic send pipeline: placeholder staging plus the
// gateway push live behind one call.
type Sender interface {
	Send(ctx context.Context, p messaging.SendParams) (*entity.Message, error)
}

type Core interface {
	EditMessage(ctx context.Context, conversationID, messageID, newContent string) (*entity.Message, error)
	EditHistory(ctx context.Context, conversationID, messageID string) ([]entity.MessageVersion, error)
	React(ctx context.Context, conversationID, messageID, reactorJid, emoji string) (*entity.Reaction, error)
	Reactions(ctx context.Context, conversationID string) ([]entity.Reaction, error)
}
