package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ZapDesk/entity"
)

const ruleColumns = `id, name, instance_id, rule_type, fixed_agent_id,
	round_robin_agents, round_robin_last_index, is_active, created_at, updated_at`

func scanRule(row pgx.Row) (*entity.AssignmentRule, error) {
	var r entity.AssignmentRule
	err := row.Scan(&r.ID, &r.Name, &r.InstanceID, &r.RuleType, &r.FixedAgentID,
		&r.RoundRobinAgents, &r.RoundRobinLastIndex, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *Postgres) CreateAssignmentRule(ctx context.Context, r *entity.AssignmentRule) (*entity.AssignmentRule, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO assignment_rules (name, instance_id, rule_type, fixed_agent_id, round_robin_agents, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+ruleColumns,
		r.Name, r.InstanceID, r.RuleType, r.FixedAgentID, r.RoundRobinAgents, r.IsActive)

	saved, err := scanRule(row)
	if err != nil {
		return nil, fmt.Errorf("postgres create assignment rule: %w", err)
	}
	return saved, nil
}

func (p *Postgres) GetAssignmentRule(ctx context.Context, id string) (*entity.AssignmentRule, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+ruleColumns+` FROM assignment_rules WHERE id = $1`, id)
	r, err := scanRule(row)
	if err != nil {
		return nil, p.findError(err)
	}
	return r, nil
}

func (p *Postgres) ListAssignmentRules(ctx context.Context) ([]entity.AssignmentRule, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+ruleColumns+` FROM assignment_rules ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("postgres list assignment rules: %w", err)
	}
	defer rows.Close()

	var out []entity.AssignmentRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres scan assignment rule: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (p *Postgres) SetAssignmentRuleActive(ctx context.Context, id string, active bool) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE assignment_rules SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("postgres toggle assignment rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteAssignmentRule(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM assignment_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres delete assignment rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AdvanceRoundRobin moves the rule's cursor one step (mod agent count)
// and returns the agent at the new index. The advance happens in a
// single statement so concurrent callers can never pick the same slot.
func (p *Postgres) AdvanceRoundRobin(ctx context.Context, ruleID string) (string, error) {
	var (
		agents []string
		index  int
	)
	err := p.pool.QueryRow(ctx, `
		UPDATE assignment_rules
		SET round_robin_last_index =
			(round_robin_last_index + 1) % greatest(cardinality(round_robin_agents), 1),
		    updated_at = now()
		WHERE id = $1 AND rule_type = 'round_robin' AND cardinality(round_robin_agents) > 0
		RETURNING round_robin_agents, round_robin_last_index`, ruleID).
		Scan(&agents, &index)
	if err != nil {
		return "", p.findError(err)
	}
	return agents[index], nil
}
