package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ZapDesk/entity"
	"ZapDesk/internal/realtime"
)

const contactColumns = `id, instance_id, name, phone_number, profile_pic_url,
	notes, created_at, updated_at`

func scanContact(row pgx.Row) (*entity.Contact, error) {
	var c entity.Contact
	err := row.Scan(&c.ID, &c.InstanceID, &c.Name, &c.PhoneNumber,
		&c.ProfilePicURL, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (p *Postgres) GetContact(ctx context.Context, id string) (*entity.Contact, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)
	c, err := scanContact(row)
	if err != nil {
		return nil, p.findError(err)
	}
	return c, nil
}

// UpsertContact creates or refreshes the contact for a phone number
// within one instance. A blank name never overwrites a known one.
func (p *Postgres) UpsertContact(ctx context.Context, c *entity.Contact) (*entity.Contact, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO contacts (instance_id, name, phone_number, profile_pic_url, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (instance_id, phone_number)
		DO UPDATE SET
			name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE contacts.name END,
			profile_pic_url = CASE WHEN EXCLUDED.profile_pic_url <> '' THEN EXCLUDED.profile_pic_url ELSE contacts.profile_pic_url END,
			updated_at = now()
		RETURNING `+contactColumns,
		c.InstanceID, c.Name, c.PhoneNumber, c.ProfilePicURL, c.Notes)

	saved, err := scanContact(row)
	if err != nil {
		return nil, fmt.Errorf("postgres upsert contact: %w", err)
	}
	p.publish(ctx, realtime.Event{Table: contactsTable, Op: realtime.OpUpdate, ID: saved.ID})
	return saved, nil
}

func (p *Postgres) UpdateContactNotes(ctx context.Context, contactID, notes string) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE contacts SET notes = $2, updated_at = now() WHERE id = $1`, contactID, notes)
	if err != nil {
		return fmt.Errorf("postgres update contact notes: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RenameContact sets the display name learned from a profile sync.
func (p *Postgres) RenameContact(ctx context.Context, contactID, name string) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE contacts SET name = $2, updated_at = now() WHERE id = $1`, contactID, name)
	if err != nil {
		return fmt.Errorf("postgres rename contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	p.publish(ctx, realtime.Event{Table: contactsTable, Op: realtime.OpUpdate, ID: contactID})
	return nil
}

// ListContactsMissingName returns contacts still showing their phone
// number as a name, per instance.
func (p *Postgres) ListContactsMissingName(ctx context.Context, instanceID string) ([]entity.Contact, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE instance_id = $1 AND (name = '' OR name = phone_number)`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("postgres list contacts missing name: %w", err)
	}
	defer rows.Close()

	var out []entity.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres scan contact: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
