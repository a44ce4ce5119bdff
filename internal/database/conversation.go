package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ZapDesk/entity"
	"ZapDesk/internal/realtime"
)

// conversationFilterSQL renders the shared WHERE clause for list, count
// and aggregate queries. The alias c refers to the conversations table.
func conversationFilterSQL(f entity.ConversationFilters, args []interface{}) (string, []interface{}) {
	var parts []string

	if f.InstanceID != "" {
		args = append(args, f.InstanceID)
		parts = append(parts, fmt.Sprintf("c.instance_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		parts = append(parts, fmt.Sprintf("c.status = $%d", len(args)))
	}
	if f.Unassigned {
		parts = append(parts, "c.assigned_to IS NULL")
	} else if f.AssignedTo != "" {
		args = append(args, f.AssignedTo)
		parts = append(parts, fmt.Sprintf("c.assigned_to = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		parts = append(parts, fmt.Sprintf("(ct.name ILIKE $%d OR ct.phone_number ILIKE $%d)", len(args), len(args)))
	}

	if len(parts) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// ListConversationsPage returns one page of conversations joined with
// contact and assignee profile, newest activity first.
func (p *Postgres) ListConversationsPage(ctx context.Context, f entity.ConversationFilters) ([]entity.ConversationWithContact, error) {
	f.Normalize()
	offset := (f.Page - 1) * f.PageSize

	where, args := conversationFilterSQL(f, nil)
	args = append(args, f.PageSize, offset)

	query := `
		SELECT c.id, c.instance_id, c.contact_id, c.status, c.unread_count,
		       c.assigned_to, c.last_message_preview, c.last_message_at,
		       c.metadata, c.created_at, c.updated_at,
		       ct.id, ct.instance_id, ct.name, ct.phone_number,
		       ct.profile_pic_url, ct.notes, ct.created_at, ct.updated_at,
		       pr.id, pr.email, pr.full_name, pr.avatar_url, pr.role, pr.created_at
		FROM conversations c
		JOIN contacts ct ON ct.id = c.contact_id
		LEFT JOIN profiles pr ON pr.id = c.assigned_to` + where + fmt.Sprintf(`
		ORDER BY c.last_message_at DESC NULLS LAST
		LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres list conversations: %w", err)
	}
	defer rows.Close()

	var out []entity.ConversationWithContact
	for rows.Next() {
		var (
			c        entity.ConversationWithContact
			metadata []byte
			prID     *string
			prEmail  *string
			prName   *string
			prAvatar *string
			prRole   *string
			prAt     *time.Time
		)
		err := rows.Scan(
			&c.ID, &c.InstanceID, &c.ContactID, &c.Status, &c.UnreadCount,
			&c.AssignedTo, &c.LastMessagePreview, &c.LastMessageAt,
			&metadata, &c.CreatedAt, &c.UpdatedAt,
			&c.Contact.ID, &c.Contact.InstanceID, &c.Contact.Name, &c.Contact.PhoneNumber,
			&c.Contact.ProfilePicURL, &c.Contact.Notes, &c.Contact.CreatedAt, &c.Contact.UpdatedAt,
			&prID, &prEmail, &prName, &prAvatar, &prRole, &prAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres scan conversation: %w", err)
		}
		if len(metadata) > 0 {
			var meta entity.ConversationMetadata
			if err := json.Unmarshal(metadata, &meta); err == nil {
				c.Metadata = &meta
			}
		}
		if prID != nil {
			c.AssignedProfile = &entity.Profile{
				ID:        *prID,
				Email:     strOr(prEmail),
				FullName:  strOr(prName),
				AvatarURL: strOr(prAvatar),
				Role:      strOr(prRole),
			}
			if prAt != nil {
				c.AssignedProfile.CreatedAt = *prAt
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func strOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CountConversations counts the whole filtered set.
func (p *Postgres) CountConversations(ctx context.Context, f entity.ConversationFilters) (int, error) {
	where, args := conversationFilterSQL(f, nil)
	query := `SELECT count(*) FROM conversations c JOIN contacts ct ON ct.id = c.contact_id` + where

	var n int
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres count conversations: %w", err)
	}
	return n, nil
}

// CountUnreadConversations counts filtered conversations with unread badges.
func (p *Postgres) CountUnreadConversations(ctx context.Context, f entity.ConversationFilters) (int, error) {
	where, args := conversationFilterSQL(f, nil)
	if where == "" {
		where = " WHERE c.unread_count > 0"
	} else {
		where += " AND c.unread_count > 0"
	}
	query := `SELECT count(*) FROM conversations c JOIN contacts ct ON ct.id = c.contact_id` + where

	var n int
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres count unread: %w", err)
	}
	return n, nil
}

// ListConversationIDs returns ids of the whole filtered set (no page).
func (p *Postgres) ListConversationIDs(ctx context.Context, f entity.ConversationFilters) ([]string, error) {
	where, args := conversationFilterSQL(f, nil)
	query := `SELECT c.id FROM conversations c JOIN contacts ct ON ct.id = c.contact_id` + where

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres list conversation ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres scan conversation id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (p *Postgres) GetConversation(ctx context.Context, id string) (*entity.Conversation, error) {
	var (
		c        entity.Conversation
		metadata []byte
	)
	err := p.pool.QueryRow(ctx, `
		SELECT id, instance_id, contact_id, status, unread_count, assigned_to,
		       last_message_preview, last_message_at, metadata, created_at, updated_at
		FROM conversations
		WHERE id = $1`, id).Scan(
		&c.ID, &c.InstanceID, &c.ContactID, &c.Status, &c.UnreadCount, &c.AssignedTo,
		&c.LastMessagePreview, &c.LastMessageAt, &metadata, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, p.findError(err)
	}
	if len(metadata) > 0 {
		var meta entity.ConversationMetadata
		if err := json.Unmarshal(metadata, &meta); err == nil {
			c.Metadata = &meta
		}
	}
	return &c, nil
}

// GetOrCreateConversation returns the thread for (instance, contact),
// creating it on first contact. The unique pair constraint makes the
// insert race-safe.
func (p *Postgres) GetOrCreateConversation(ctx context.Context, instanceID, contactID string) (*entity.Conversation, error) {
	var id string
	err := p.pool.QueryRow(ctx, `
		INSERT INTO conversations (instance_id, contact_id)
		VALUES ($1, $2)
		ON CONFLICT (instance_id, contact_id) DO UPDATE SET updated_at = now()
		RETURNING id`, instanceID, contactID).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("postgres get or create conversation: %w", err)
	}
	return p.GetConversation(ctx, id)
}

// ResetUnread zeroes the unread badge when an agent opens the thread.
func (p *Postgres) ResetUnread(ctx context.Context, conversationID string) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE conversations SET unread_count = 0, updated_at = now()
		WHERE id = $1`, conversationID)
	if err != nil {
		return fmt.Errorf("postgres reset unread: %w", err)
	}
	p.publish(ctx, realtime.Event{
		Table: convosTable, Op: realtime.OpUpdate,
		ID: conversationID, ConversationID: conversationID,
	})
	return nil
}

func (p *Postgres) UpdateConversationStatus(ctx context.Context, conversationID, status string) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE conversations SET status = $2, updated_at = now()
		WHERE id = $1`, conversationID, status)
	if err != nil {
		return fmt.Errorf("postgres update conversation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	p.publish(ctx, realtime.Event{
		Table: convosTable, Op: realtime.OpUpdate,
		ID: conversationID, ConversationID: conversationID,
	})
	return nil
}

// SetAssignee swaps the current assignee with a compare-and-swap on the
// previous value, so two racing assignments cannot silently overwrite
// each other: the loser gets ErrAssigneeChanged.
func (p *Postgres) SetAssignee(ctx context.Context, conversationID string, previous, next *string) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE conversations SET assigned_to = $3, updated_at = now()
		WHERE id = $1 AND assigned_to IS NOT DISTINCT FROM $2`,
		conversationID, previous, next)
	if err != nil {
		return fmt.Errorf("postgres set assignee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the conversation is gone or someone else won the swap.
		if _, gerr := p.GetConversation(ctx, conversationID); gerr != nil {
			return gerr
		}
		return ErrAssigneeChanged
	}
	p.publish(ctx, realtime.Event{
		Table: convosTable, Op: realtime.OpUpdate,
		ID: conversationID, ConversationID: conversationID,
	})
	return nil
}

// MergeMetadata overwrites the versioned metadata column.
func (p *Postgres) MergeMetadata(ctx context.Context, conversationID string, meta *entity.ConversationMetadata) error {
	meta.Version = entity.MetadataVersion
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("postgres marshal metadata: %w", err)
	}
	tag, err := p.pool.Exec(ctx, `
		UPDATE conversations SET metadata = $2, updated_at = now()
		WHERE id = $1`, conversationID, data)
	if err != nil {
		return fmt.Errorf("postgres merge metadata: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	p.publish(ctx, realtime.Event{
		Table: convosTable, Op: realtime.OpUpdate,
		ID: conversationID, ConversationID: conversationID,
	})
	return nil
}

// touchLastMessage refreshes the list preview after a message lands.
func (p *Postgres) touchLastMessage(ctx context.Context, conversationID, preview string, at time.Time, inbound bool) error {
	unreadDelta := 0
	if inbound {
		unreadDelta = 1
	}
	_, err := p.pool.Exec(ctx, `
		UPDATE conversations
		SET last_message_preview = $2,
		    last_message_at = $3,
		    unread_count = unread_count + $4,
		    updated_at = now()
		WHERE id = $1`, conversationID, preview, at, unreadDelta)
	if err != nil {
		return fmt.Errorf("postgres touch last message: %w", err)
	}
	return nil
}
