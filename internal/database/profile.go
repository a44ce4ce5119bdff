package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ZapDesk/entity"
)

const profileColumns = `id, email, full_name, avatar_url, role, created_at`

func scanProfile(row pgx.Row) (*entity.Profile, error) {
	var pr entity.Profile
	err := row.Scan(&pr.ID, &pr.Email, &pr.FullName, &pr.AvatarURL, &pr.Role, &pr.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

func (p *Postgres) GetProfile(ctx context.Context, id string) (*entity.Profile, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	pr, err := scanProfile(row)
	if err != nil {
		return nil, p.findError(err)
	}
	return pr, nil
}

func (p *Postgres) ListProfiles(ctx context.Context) ([]entity.Profile, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY full_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("postgres list profiles: %w", err)
	}
	defer rows.Close()

	var out []entity.Profile
	for rows.Next() {
		pr, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres scan profile: %w", err)
		}
		out = append(out, *pr)
	}
	return out, rows.Err()
}

// EnsureProfile creates a profile on first login and is a no-op after,
// so invited members always have a row before their first assignment.
func (p *Postgres) EnsureProfile(ctx context.Context, email, fullName, role string) (*entity.Profile, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO profiles (email, full_name, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET
			full_name = CASE WHEN EXCLUDED.full_name <> '' THEN EXCLUDED.full_name ELSE profiles.full_name END
		RETURNING `+profileColumns,
		email, fullName, role)

	pr, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("postgres ensure profile: %w", err)
	}
	return pr, nil
}
