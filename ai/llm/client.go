// Package llm wraps a generic chat-completion endpoint for the console's
// summarization, categorization and compose features. The model itself is
// an external service; everything here is prompt assembly and response
// parsing.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"ZapDesk/internal/config"
	"ZapDesk/internal/lib/sl"
)

var (
	// ErrRateLimited maps the provider's 429 to a distinct user-facing error.
	ErrRateLimited = errors.New("ai rate limit reached")
	// ErrCreditsExhausted maps the provider's 402.
	ErrCreditsExhausted = errors.New("ai credits exhausted")
	// ErrNoCredential is returned by features with no heuristic fallback.
	ErrNoCredential = errors.New("ai credential not configured")
)

type Client struct {
	api   *openai.Client
	model string
	log   *slog.Logger
}

// New returns a client, or nil when no credential is configured; callers
// treat a nil client as "AI unavailable" and fall back where defined.
func New(conf *config.Config, log *slog.Logger) *Client {
	if conf.AI.ApiKey == "" {
		return nil
	}

	cfg := openai.DefaultConfig(conf.AI.ApiKey)
	if conf.AI.BaseURL != "" {
		cfg.BaseURL = conf.AI.BaseURL
	}

	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: conf.AI.Model,
		log:   log.With(sl.Module("ai.llm")),
	}
}

// complete runs one system+user exchange and returns the raw text.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", c.mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("ai completion: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return ErrRateLimited
		case http.StatusPaymentRequired:
			return ErrCreditsExhausted
		}
	}
	return fmt.Errorf("ai completion: %w", err)
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
