package repository

import (
	"context"
	"fmt"

	"ZapDesk/entity"
	"ZapDesk/internal/realtime"
)

func (p *Postgres) SaveSummary(ctx context.Context, s *entity.ConversationSummary) (*entity.ConversationSummary, error) {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO conversation_summaries (conversation_id, summary, key_points,
			action_items, sentiment_at_time, messages_count, period_start, period_end, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		s.ConversationID, s.Summary, s.KeyPoints, s.ActionItems,
		s.SentimentAtTime, s.MessagesCount, s.PeriodStart, s.PeriodEnd, s.Source,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres save summary: %w", err)
	}
	p.publish(ctx, realtime.Event{
		Table: summariesTable, Op: realtime.OpInsert,
		ID: s.ID, ConversationID: s.ConversationID,
	})
	return s, nil
}

func (p *Postgres) ListSummaries(ctx context.Context, conversationID string) ([]entity.ConversationSummary, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, conversation_id, summary, key_points, action_items,
		       sentiment_at_time, messages_count, period_start, period_end, source, created_at
		FROM conversation_summaries
		WHERE conversation_id = $1
		ORDER BY created_at DESC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("postgres list summaries: %w", err)
	}
	defer rows.Close()

	var out []entity.ConversationSummary
	for rows.Next() {
		var s entity.ConversationSummary
		if err := rows.Scan(&s.ID, &s.ConversationID, &s.Summary, &s.KeyPoints, &s.ActionItems,
			&s.SentimentAtTime, &s.MessagesCount, &s.PeriodStart, &s.PeriodEnd, &s.Source, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres scan summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
