package repository

import (
	"context"
	"fmt"

	"ZapDesk/entity"
	"ZapDesk/internal/realtime"
)

// AppendAssignmentRecord writes one audit row for an assignment change.
func (p *Postgres) AppendAssignmentRecord(ctx context.Context, rec *entity.AssignmentRecord) error {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO assignment_records (conversation_id, assigned_from, assigned_to, assigned_by, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		rec.ConversationID, rec.AssignedFrom, rec.AssignedTo, rec.AssignedBy, rec.Reason,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres append assignment record: %w", err)
	}
	p.publish(ctx, realtime.Event{
		Table: assignmentsTable, Op: realtime.OpInsert,
		ID: rec.ID, ConversationID: rec.ConversationID,
	})
	return nil
}

// ListAssignmentRecords returns the audit trail, newest first.
func (p *Postgres) ListAssignmentRecords(ctx context.Context, conversationID string) ([]entity.AssignmentRecord, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, conversation_id, assigned_from, assigned_to, assigned_by, reason, created_at
		FROM assignment_records
		WHERE conversation_id = $1
		ORDER BY created_at DESC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("postgres list assignment records: %w", err)
	}
	defer rows.Close()

	var out []entity.AssignmentRecord
	for rows.Next() {
		var r entity.AssignmentRecord
		if err := rows.Scan(&r.ID, &r.ConversationID, &r.AssignedFrom,
			&r.AssignedTo, &r.AssignedBy, &r.Reason, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres scan assignment record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
