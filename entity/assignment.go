package entity

import (
	"time"
)

const (
	RuleFixed      = "fixed"
	RuleRoundRobin = "round_robin"
)

// AssignmentRecord is one append-only audit entry. The conversation's
// current assignee must equal AssignedTo of its newest record; a nil
// AssignedTo marks a return to the queue.
type AssignmentRecord struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	AssignedFrom   *string   `json:"assigned_from,omitempty"`
	AssignedTo     *string   `json:"assigned_to"`
	AssignedBy     string    `json:"assigned_by"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// AssignmentRule configures auto-routing for an instance.
// RoundRobinLastIndex is always a valid index into RoundRobinAgents
// and is only ever advanced atomically by the store.
type AssignmentRule struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	InstanceID          string    `json:"instance_id"`
	RuleType            string    `json:"rule_type"` // "fixed" | "round_robin"
	FixedAgentID        *string   `json:"fixed_agent_id,omitempty"`
	RoundRobinAgents    []string  `json:"round_robin_agents,omitempty"`
	RoundRobinLastIndex int       `json:"round_robin_last_index"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
