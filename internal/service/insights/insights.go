// Package insights drives the AI features: topic categorization,
// conversation summaries and reply composition.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ZapDesk/ai/llm"
	"ZapDesk/entity"
	"ZapDesk/internal/lib/sl"
	"ZapDesk/internal/metrics"
)

const summaryWindow = 30

// Repository is the store slice the AI features read and write.
type Repository interface {
	GetConversation(ctx context.Context, id string) (*entity.Conversation, error)
	GetContact(ctx context.Context, id string) (*entity.Contact, error)
	GetInstance(ctx context.Context, id string) (*entity.Instance, error)
	ListMessages(ctx context.Context, conversationID string) ([]entity.Message, error)
	ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]entity.Message, error)
	LastSentContents(ctx context.Context, limit int) ([]string, error)
	MergeMetadata(ctx context.Context, conversationID string, meta *entity.ConversationMetadata) error
	SaveSummary(ctx context.Context, s *entity.ConversationSummary) (*entity.ConversationSummary, error)
	ListSummaries(ctx context.Context, conversationID string) ([]entity.ConversationSummary, error)
}

// Model is the slice of the LLM client insights calls. A nil *llm.Client
// satisfies it and triggers the deterministic fallbacks.
type Model interface {
	Categorize(ctx context.Context, messages []entity.Message) (*entity.ConversationMetadata, error)
	Summarize(ctx context.Context, contactName string, messages []entity.Message) (*llm.SummaryResult, error)
	Compose(ctx context.Context, message, action, targetLanguage string, styleExamples []string) (string, error)
}

type Service struct {
	repo  Repository
	model Model
	now   func() time.Time
	log   *slog.Logger
}

func NewService(repo Repository, model Model, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		model: model,
		now:   func() time.Time { return time.Now().UTC() },
		log:   log.With(sl.Module("service.insights")),
	}
}

// Categorize classifies the conversation and merges the result into its
// metadata, stamping when the classification happened.
func (s *Service) Categorize(ctx context.Context, conversationID string) (*entity.ConversationMetadata, error) {
	messages, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		metrics.AICalls.WithLabelValues("categorize", "error").Inc()
		return nil, fmt.Errorf("list messages: %w", err)
	}

	meta, err := s.model.Categorize(ctx, messages)
	if err != nil {
		metrics.AICalls.WithLabelValues("categorize", metrics.Outcome(err)).Inc()
		return nil, err
	}

	at := s.now().Format(time.RFC3339)
	meta.Version = entity.MetadataVersion
	meta.CategorizedAt = &at

	if err := s.repo.MergeMetadata(ctx, conversationID, meta); err != nil {
		metrics.AICalls.WithLabelValues("categorize", "error").Inc()
		return nil, fmt.Errorf("merge metadata: %w", err)
	}

	metrics.AICalls.WithLabelValues("categorize", "ok").Inc()
	return meta, nil
}

// Summarize produces and stores a summary over the last messages of the
// conversation. Without a model credential, or when the conversation
// lives on a mock instance, the deterministic heuristic path runs
// instead, marked by its source field.
func (s *Service) Summarize(ctx context.Context, conversationID string) (*entity.ConversationSummary, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	contact, err := s.repo.GetContact(ctx, conv.ContactID)
	if err != nil {
		return nil, fmt.Errorf("load contact: %w", err)
	}
	instance, err := s.repo.GetInstance(ctx, conv.InstanceID)
	if err != nil {
		return nil, fmt.Errorf("load instance: %w", err)
	}

	// Newest first, capped at the analysis window.
	messages, err := s.repo.ListRecentMessages(ctx, conversationID, summaryWindow)
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}

	var result *llm.SummaryResult
	if instance.Mock() {
		// Mock conversations never reach the model, even with a
		// credential configured.
		if len(messages) < llm.MinMessagesForSummary {
			return nil, fmt.Errorf("summary: need at least %d messages, have %d",
				llm.MinMessagesForSummary, len(messages))
		}
		result = llm.HeuristicSummary(contact.Name, messages)
	} else {
		result, err = s.model.Summarize(ctx, contact.Name, messages)
		if err != nil {
			metrics.AICalls.WithLabelValues("summary", metrics.Outcome(err)).Inc()
			return nil, err
		}
	}

	periodStart := messages[len(messages)-1].Timestamp
	periodEnd := messages[0].Timestamp

	saved, err := s.repo.SaveSummary(ctx, &entity.ConversationSummary{
		ConversationID:  conversationID,
		Summary:         result.Summary,
		KeyPoints:       result.KeyPoints,
		ActionItems:     result.ActionItems,
		SentimentAtTime: result.Sentiment,
		MessagesCount:   len(messages),
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		Source:          result.Source,
	})
	if err != nil {
		metrics.AICalls.WithLabelValues("summary", "error").Inc()
		return nil, fmt.Errorf("save summary: %w", err)
	}

	metrics.AICalls.WithLabelValues("summary", "ok").Inc()
	return saved, nil
}

// Summaries lists the stored summary history of a conversation.
func (s *Service) Summaries(ctx context.Context, conversationID string) ([]entity.ConversationSummary, error) {
	return s.repo.ListSummaries(ctx, conversationID)
}

// Compose rewrites a draft. The my_tone action feeds the model with the
// team's recent sent messages as style examples.
func (s *Service) Compose(ctx context.Context, message, action, targetLanguage string) (string, error) {
	var examples []string
	if action == llm.ActionMyTone {
		var err error
		examples, err = s.repo.LastSentContents(ctx, 20)
		if err != nil {
			metrics.AICalls.WithLabelValues("compose", "error").Inc()
			return "", fmt.Errorf("load style examples: %w", err)
		}
	}

	composed, err := s.model.Compose(ctx, message, action, targetLanguage, examples)
	metrics.AICalls.WithLabelValues("compose", metrics.Outcome(err)).Inc()
	if err != nil {
		return "", err
	}
	return composed, nil
}
