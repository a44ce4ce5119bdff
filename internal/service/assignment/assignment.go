// Package assignment keeps the conversation ownership audit trail and
// the auto-routing rules.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ZapDesk/entity"
	"ZapDesk/internal/lib/sl"
	"ZapDesk/internal/metrics"
)

var ErrNoEligibleAgent = errors.New("rule has no eligible agent")

// Repository is the store surface the audit trail lives on. SetAssignee
// compares against the expected previous assignee and fails with
// repository.ErrAssigneeChanged when someone else won the race.
type Repository interface {
	GetConversation(ctx context.Context, id string) (*entity.Conversation, error)
	GetProfile(ctx context.Context, id string) (*entity.Profile, error)
	SetAssignee(ctx context.Context, conversationID string, previous, next *string) error
	AppendAssignmentRecord(ctx context.Context, rec *entity.AssignmentRecord) error
	ListAssignmentRecords(ctx context.Context, conversationID string) ([]entity.AssignmentRecord, error)

	CreateAssignmentRule(ctx context.Context, r *entity.AssignmentRule) (*entity.AssignmentRule, error)
	GetAssignmentRule(ctx context.Context, id string) (*entity.AssignmentRule, error)
	ListAssignmentRules(ctx context.Context) ([]entity.AssignmentRule, error)
	SetAssignmentRuleActive(ctx context.Context, id string, active bool) error
	DeleteAssignmentRule(ctx context.Context, id string) error
	AdvanceRoundRobin(ctx context.Context, ruleID string) (string, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With(sl.Module("service.assignment")),
	}
}

// Assign hands the conversation to agentID and appends the audit record.
// The conditional update loses to a concurrent assignment rather than
// silently overwriting it, so the trail never contradicts the pointer.
func (s *Service) Assign(ctx context.Context, conversationID, agentID, byID, reason string) error {
	if _, err := s.repo.GetProfile(ctx, agentID); err != nil {
		metrics.Assignments.WithLabelValues("assign", "error").Inc()
		return fmt.Errorf("load agent profile: %w", err)
	}

	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		metrics.Assignments.WithLabelValues("assign", "error").Inc()
		return fmt.Errorf("load conversation: %w", err)
	}

	kind := "assign"
	if conv.AssignedTo != nil {
		kind = "transfer"
	}

	if err := s.repo.SetAssignee(ctx, conversationID, conv.AssignedTo, &agentID); err != nil {
		metrics.Assignments.WithLabelValues(kind, "error").Inc()
		return err
	}

	rec := &entity.AssignmentRecord{
		ConversationID: conversationID,
		AssignedFrom:   conv.AssignedTo,
		AssignedTo:     &agentID,
		AssignedBy:     byID,
		Reason:         reason,
	}
	if err := s.repo.AppendAssignmentRecord(ctx, rec); err != nil {
		metrics.Assignments.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("append assignment record: %w", err)
	}

	s.log.Info("conversation assigned",
		"conversation_id", conversationID,
		"assigned_to", agentID,
		"kind", kind,
	)
	metrics.Assignments.WithLabelValues(kind, "ok").Inc()
	return nil
}

// Unassign returns the conversation to the queue. Unassigning an already
// unassigned conversation is a no-op and writes no record.
func (s *Service) Unassign(ctx context.Context, conversationID, byID string) error {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		metrics.Assignments.WithLabelValues("unassign", "error").Inc()
		return fmt.Errorf("load conversation: %w", err)
	}
	if conv.AssignedTo == nil {
		return nil
	}

	if err := s.repo.SetAssignee(ctx, conversationID, conv.AssignedTo, nil); err != nil {
		metrics.Assignments.WithLabelValues("unassign", "error").Inc()
		return err
	}

	rec := &entity.AssignmentRecord{
		ConversationID: conversationID,
		AssignedFrom:   conv.AssignedTo,
		AssignedBy:     byID,
		Reason:         "Returned to queue",
	}
	if err := s.repo.AppendAssignmentRecord(ctx, rec); err != nil {
		metrics.Assignments.WithLabelValues("unassign", "error").Inc()
		return fmt.Errorf("append assignment record: %w", err)
	}

	metrics.Assignments.WithLabelValues("unassign", "ok").Inc()
	return nil
}

// History lists the audit trail, newest first.
func (s *Service) History(ctx context.Context, conversationID string) ([]entity.AssignmentRecord, error) {
	return s.repo.ListAssignmentRecords(ctx, conversationID)
}

// NextAgent resolves the agent a rule would route to, advancing the
// round-robin cursor when applicable.
func (s *Service) NextAgent(ctx context.Context, ruleID string) (string, error) {
	rule, err := s.repo.GetAssignmentRule(ctx, ruleID)
	if err != nil {
		return "", fmt.Errorf("load rule: %w", err)
	}
	if !rule.IsActive {
		return "", ErrNoEligibleAgent
	}

	switch rule.RuleType {
	case entity.RuleFixed:
		if rule.FixedAgentID == nil || *rule.FixedAgentID == "" {
			return "", ErrNoEligibleAgent
		}
		return *rule.FixedAgentID, nil
	case entity.RuleRoundRobin:
		if len(rule.RoundRobinAgents) == 0 {
			return "", ErrNoEligibleAgent
		}
		return s.repo.AdvanceRoundRobin(ctx, ruleID)
	default:
		return "", fmt.Errorf("unknown rule type %q", rule.RuleType)
	}
}

// AutoAssign routes a conversation through a rule and records the
// assignment on behalf of the system.
func (s *Service) AutoAssign(ctx context.Context, conversationID, ruleID string) (string, error) {
	agent, err := s.NextAgent(ctx, ruleID)
	if err != nil {
		return "", err
	}
	if err := s.Assign(ctx, conversationID, agent, "system", "Auto-assigned by rule"); err != nil {
		return "", err
	}
	return agent, nil
}

// Rule CRUD passthrough.

func (s *Service) CreateRule(ctx context.Context, r *entity.AssignmentRule) (*entity.AssignmentRule, error) {
	switch r.RuleType {
	case entity.RuleFixed:
		if r.FixedAgentID == nil || *r.FixedAgentID == "" {
			return nil, errors.New("fixed rule needs an agent")
		}
	case entity.RuleRoundRobin:
		if len(r.RoundRobinAgents) == 0 {
			return nil, errors.New("round-robin rule needs at least one agent")
		}
	default:
		return nil, fmt.Errorf("unknown rule type %q", r.RuleType)
	}
	return s.repo.CreateAssignmentRule(ctx, r)
}

func (s *Service) ListRules(ctx context.Context) ([]entity.AssignmentRule, error) {
	return s.repo.ListAssignmentRules(ctx)
}

func (s *Service) SetRuleActive(ctx context.Context, id string, active bool) error {
	return s.repo.SetAssignmentRuleActive(ctx, id, active)
}

func (s *Service) DeleteRule(ctx context.Context, id string) error {
	return s.repo.DeleteAssignmentRule(ctx, id)
}
