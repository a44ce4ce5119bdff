package repository

import (
	"context"
	"fmt"

	"ZapDesk/entity"
	"ZapDesk/internal/realtime"
)

func (p *Postgres) CreateNote(ctx context.Context, n *entity.ConversationNote) (*entity.ConversationNote, error) {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO conversation_notes (conversation_id, author_id, content, pinned)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		n.ConversationID, n.AuthorID, n.Content, n.Pinned,
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres create note: %w", err)
	}
	p.publish(ctx, realtime.Event{
		Table: notesTable, Op: realtime.OpInsert,
		ID: n.ID, ConversationID: n.ConversationID,
	})
	return n, nil
}

// ListNotes returns pinned notes first, then newest first inside each
// pin group.
func (p *Postgres) ListNotes(ctx context.Context, conversationID string) ([]entity.ConversationNote, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, conversation_id, author_id, content, pinned, created_at, updated_at
		FROM conversation_notes
		WHERE conversation_id = $1
		ORDER BY pinned DESC, created_at DESC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("postgres list notes: %w", err)
	}
	defer rows.Close()

	var out []entity.ConversationNote
	for rows.Next() {
		var n entity.ConversationNote
		if err := rows.Scan(&n.ID, &n.ConversationID, &n.AuthorID,
			&n.Content, &n.Pinned, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres scan note: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (p *Postgres) SetNotePinned(ctx context.Context, noteID string, pinned bool) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE conversation_notes SET pinned = $2, updated_at = now() WHERE id = $1`, noteID, pinned)
	if err != nil {
		return fmt.Errorf("postgres pin note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteNote(ctx context.Context, noteID string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM conversation_notes WHERE id = $1`, noteID)
	if err != nil {
		return fmt.Errorf("postgres delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
