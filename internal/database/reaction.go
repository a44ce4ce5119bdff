package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"ZapDesk/entity"
	"ZapDesk/internal/realtime"
)

// UpsertReaction stores one reaction per (message, reactor): a repeated
// reaction from the same reactor replaces the emoji instead of adding a
// second row.
func (p *Postgres) UpsertReaction(ctx context.Context, r *entity.Reaction) (*entity.Reaction, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO reactions (message_id, conversation_id, reactor_jid, emoji, is_from_me)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (message_id, reactor_jid)
		DO UPDATE SET emoji = EXCLUDED.emoji, is_from_me = EXCLUDED.is_from_me, created_at = now()
		RETURNING id, message_id, conversation_id, reactor_jid, emoji, is_from_me, created_at`,
		r.MessageID, r.ConversationID, r.ReactorJid, r.Emoji, r.IsFromMe)

	var saved entity.Reaction
	err := row.Scan(&saved.ID, &saved.MessageID, &saved.ConversationID,
		&saved.ReactorJid, &saved.Emoji, &saved.IsFromMe, &saved.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres upsert reaction: %w", err)
	}

	payload, _ := json.Marshal(saved)
	p.publish(ctx, realtime.Event{
		Table: reactionsTable, Op: realtime.OpInsert,
		ID: saved.ID, ConversationID: saved.ConversationID, Payload: payload,
	})
	return &saved, nil
}

// ListReactions returns all reactions of a conversation.
func (p *Postgres) ListReactions(ctx context.Context, conversationID string) ([]entity.Reaction, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, message_id, conversation_id, reactor_jid, emoji, is_from_me, created_at
		FROM reactions
		WHERE conversation_id = $1
		ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("postgres list reactions: %w", err)
	}
	defer rows.Close()

	var out []entity.Reaction
	for rows.Next() {
		var r entity.Reaction
		if err := rows.Scan(&r.ID, &r.MessageID, &r.ConversationID,
			&r.ReactorJid, &r.Emoji, &r.IsFromMe, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres scan reaction: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
