package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"ZapDesk/entity"
	"ZapDesk/internal/realtime"
)

const messageColumns = `id, conversation_id, message_id, remote_jid, content,
	message_type, media_url, media_mimetype, status, is_from_me,
	quoted_message_id, original_content, edited_at, timestamp, created_at`

func scanMessage(row pgx.Row) (*entity.Message, error) {
	var m entity.Message
	err := row.Scan(
		&m.ID, &m.ConversationID, &m.MessageID, &m.RemoteJid, &m.Content,
		&m.MessageType, &m.MediaURL, &m.MediaMimetype, &m.Status, &m.IsFromMe,
		&m.QuotedMessageID, &m.OriginalContent, &m.EditedAt, &m.Timestamp, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// InsertMessage persists a message, refreshes the conversation preview
// (bumping unread for inbound messages) and publishes the insert event.
func (p *Postgres) InsertMessage(ctx context.Context, m *entity.Message) (*entity.Message, error) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}

	row := p.pool.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, message_id, remote_jid, content,
			message_type, media_url, media_mimetype, status, is_from_me,
			quoted_message_id, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+messageColumns,
		m.ConversationID, m.MessageID, m.RemoteJid, m.Content,
		m.MessageType, m.MediaURL, m.MediaMimetype, m.Status, m.IsFromMe,
		m.QuotedMessageID, m.Timestamp)

	saved, err := scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("postgres insert message: %w", err)
	}

	preview := saved.Content
	if saved.MessageType != entity.MessageText && preview == "" {
		preview = "[" + saved.MessageType + "]"
	}
	if err := p.touchLastMessage(ctx, saved.ConversationID, preview, saved.Timestamp, !saved.IsFromMe); err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(saved)
	p.publish(ctx, realtime.Event{
		Table: messagesTable, Op: realtime.OpInsert,
		ID: saved.ID, ConversationID: saved.ConversationID, Payload: payload,
	})
	return saved, nil
}

func (p *Postgres) GetMessage(ctx context.Context, messageID, conversationID string) (*entity.Message, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE message_id = $1 AND conversation_id = $2`, messageID, conversationID)

	m, err := scanMessage(row)
	if err != nil {
		return nil, p.findError(err)
	}
	return m, nil
}

// ListMessages returns the whole thread, oldest first.
func (p *Postgres) ListMessages(ctx context.Context, conversationID string) ([]entity.Message, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = $1
		ORDER BY timestamp ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("postgres list messages: %w", err)
	}
	defer rows.Close()

	var out []entity.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres scan message: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// ListRecentMessages returns up to limit newest messages, newest first.
func (p *Postgres) ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]entity.Message, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres list recent messages: %w", err)
	}
	defer rows.Close()

	var out []entity.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres scan message: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// LastMessageDirections maps each conversation id to the is_from_me flag
// of its newest message. Conversations without messages are absent. Ties
// on equal timestamps break by whichever row the descending sort yields
// first.
func (p *Postgres) LastMessageDirections(ctx context.Context, conversationIDs []string) (map[string]bool, error) {
	if len(conversationIDs) == 0 {
		return map[string]bool{}, nil
	}

	rows, err := p.pool.Query(ctx, `
		SELECT DISTINCT ON (conversation_id) conversation_id, is_from_me
		FROM messages
		WHERE conversation_id = ANY($1)
		ORDER BY conversation_id, timestamp DESC`, conversationIDs)
	if err != nil {
		return nil, fmt.Errorf("postgres last message directions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool, len(conversationIDs))
	for rows.Next() {
		var id string
		var fromMe bool
		if err := rows.Scan(&id, &fromMe); err != nil {
			return nil, fmt.Errorf("postgres scan direction: %w", err)
		}
		out[id] = fromMe
	}
	return out, rows.Err()
}

// ApplyEdit performs the whole edit in one transaction: append the
// superseded content to history, pin original_content on first edit,
// swap content and stamp edited_at. Either everything lands or nothing.
func (p *Postgres) ApplyEdit(ctx context.Context, m *entity.Message, newContent string, editedAt time.Time) (*entity.Message, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres begin edit: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO message_edit_history (message_id, conversation_id, previous_content, edited_at)
		VALUES ($1, $2, $3, $4)`,
		m.ID, m.ConversationID, m.Content, editedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres insert edit history: %w", err)
	}

	original := m.Content
	if m.OriginalContent != nil {
		original = *m.OriginalContent
	}

	row := tx.QueryRow(ctx, `
		UPDATE messages
		SET content = $2, original_content = $3, edited_at = $4
		WHERE id = $1
		RETURNING `+messageColumns,
		m.ID, newContent, original, editedAt)

	updated, err := scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("postgres update message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres commit edit: %w", err)
	}

	payload, _ := json.Marshal(updated)
	p.publish(ctx, realtime.Event{
		Table: messagesTable, Op: realtime.OpUpdate,
		ID: updated.ID, ConversationID: updated.ConversationID, Payload: payload,
	})
	return updated, nil
}

// ListEditHistory returns history entries in edit order, oldest first.
func (p *Postgres) ListEditHistory(ctx context.Context, messageID string) ([]entity.EditHistoryEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, message_id, conversation_id, previous_content, edited_at
		FROM message_edit_history
		WHERE message_id = $1
		ORDER BY edited_at ASC`, messageID)
	if err != nil {
		return nil, fmt.Errorf("postgres list edit history: %w", err)
	}
	defer rows.Close()

	var out []entity.EditHistoryEntry
	for rows.Next() {
		var e entity.EditHistoryEntry
		if err := rows.Scan(&e.ID, &e.MessageID, &e.ConversationID, &e.PreviousContent, &e.EditedAt); err != nil {
			return nil, fmt.Errorf("postgres scan edit history: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LastSentContents samples the newest agent-sent texts, used as style
// examples for the my_tone composer action.
func (p *Postgres) LastSentContents(ctx context.Context, limit int) ([]string, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT content FROM messages
		WHERE is_from_me = true AND content <> ''
		ORDER BY timestamp DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres last sent contents: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("postgres scan content: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateMessageStatus tracks gateway delivery callbacks.
func (p *Postgres) UpdateMessageStatus(ctx context.Context, messageID, conversationID, status string) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE messages SET status = $3
		WHERE message_id = $1 AND conversation_id = $2`, messageID, conversationID, status)
	if err != nil {
		return fmt.Errorf("postgres update message status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	p.publish(ctx, realtime.Event{
		Table: messagesTable, Op: realtime.OpUpdate,
		ID: messageID, ConversationID: conversationID,
	})
	return nil
}
