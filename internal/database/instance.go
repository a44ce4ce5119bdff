package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ZapDesk/entity"
	"ZapDesk/internal/realtime"
)

const instanceColumns = `id, instance_name, provider_type, instance_id_external,
	status, phone_number, created_at, updated_at`

func scanInstance(row pgx.Row) (*entity.Instance, error) {
	var i entity.Instance
	err := row.Scan(&i.ID, &i.InstanceName, &i.ProviderType, &i.InstanceIDExternal,
		&i.Status, &i.PhoneNumber, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (p *Postgres) GetInstance(ctx context.Context, id string) (*entity.Instance, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+instanceColumns+` FROM instances WHERE id = $1`, id)
	i, err := scanInstance(row)
	if err != nil {
		return nil, p.findError(err)
	}
	return i, nil
}

func (p *Postgres) ListInstances(ctx context.Context) ([]entity.Instance, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+instanceColumns+` FROM instances ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("postgres list instances: %w", err)
	}
	defer rows.Close()

	var out []entity.Instance
	for rows.Next() {
		i, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres scan instance: %w", err)
		}
		out = append(out, *i)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateInstance(ctx context.Context, i *entity.Instance, secret *entity.InstanceSecret) (*entity.Instance, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres begin create instance: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO instances (instance_name, provider_type, instance_id_external, status, phone_number)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+instanceColumns,
		i.InstanceName, i.ProviderType, i.InstanceIDExternal, i.Status, i.PhoneNumber)

	saved, err := scanInstance(row)
	if err != nil {
		return nil, fmt.Errorf("postgres create instance: %w", err)
	}

	if secret != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO instance_secrets (instance_id, api_url, api_key)
			VALUES ($1, $2, $3)`, saved.ID, secret.ApiURL, secret.ApiKey)
		if err != nil {
			return nil, fmt.Errorf("postgres create instance secret: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres commit create instance: %w", err)
	}
	return saved, nil
}

func (p *Postgres) GetInstanceSecret(ctx context.Context, instanceID string) (*entity.InstanceSecret, error) {
	var s entity.InstanceSecret
	err := p.pool.QueryRow(ctx, `
		SELECT instance_id, api_url, api_key FROM instance_secrets WHERE instance_id = $1`,
		instanceID).Scan(&s.InstanceID, &s.ApiURL, &s.ApiKey)
	if err != nil {
		return nil, p.findError(err)
	}
	return &s, nil
}

func (p *Postgres) UpdateInstanceStatus(ctx context.Context, instanceID, status string) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE instances SET status = $2, updated_at = now() WHERE id = $1`, instanceID, status)
	if err != nil {
		return fmt.Errorf("postgres update instance status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	p.publish(ctx, realtime.Event{Table: instancesTable, Op: realtime.OpUpdate, ID: instanceID})
	return nil
}
