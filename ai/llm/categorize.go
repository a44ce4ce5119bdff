package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ZapDesk/entity"
)

const categorizeSystemPrompt = `You categorize WhatsApp customer-service conversations.

STANDARD TOPICS (ALWAYS PREFER THESE):

**Commercial:** sales, billing, renewal
**Support:** technical_question, product_question, access
**Relationship:** feedback, cancellation, onboarding
**Operational:** scheduling, documentation, record_update
**Other:** general, spam

TASK: analyze the conversation and return JSON:
{
  "primary_topic": "topic from the list above",
  "secondary_topics": ["topic 2", "topic 3"],
  "confidence": 0.95,
  "reasoning": "brief explanation",
  "custom_topic": null
}

RULES:
1. ALWAYS try the standard topics first
2. Use custom_topic only when nothing above fits at all
3. Be conservative: prefer "general" over inventing a topic
4. At most 2 secondary topics
5. Return ONLY the JSON, no markdown and no extra text`

// categorization mirrors the JSON contract of the system prompt.
type categorization struct {
	PrimaryTopic    string   `json:"primary_topic"`
	SecondaryTopics []string `json:"secondary_topics"`
	Confidence      float64  `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
	CustomTopic     *string  `json:"custom_topic"`
}

// Categorize classifies a conversation from its recent text messages
// (newest capped at 50) and returns metadata ready to merge.
func (c *Client) Categorize(ctx context.Context, messages []entity.Message) (*entity.ConversationMetadata, error) {
	if c == nil {
		return nil, ErrNoCredential
	}

	var lines []string
	for _, m := range messages {
		if m.MessageType != entity.MessageText || m.Content == "" {
			continue
		}
		sender := "Customer"
		if m.IsFromMe {
			sender = "Agent"
		}
		lines = append(lines, sender+": "+m.Content)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("categorize: no text messages")
	}
	if len(lines) > 50 {
		lines = lines[len(lines)-50:]
	}

	raw, err := c.complete(ctx, categorizeSystemPrompt, strings.Join(lines, "\n"))
	if err != nil {
		return nil, err
	}

	var cat categorization
	if err := json.Unmarshal([]byte(stripFences(raw)), &cat); err != nil {
		return nil, fmt.Errorf("categorize: decode model output: %w", err)
	}
	if cat.PrimaryTopic == "" {
		return nil, fmt.Errorf("categorize: model returned no primary topic")
	}

	meta := &entity.ConversationMetadata{
		PrimaryTopic:    cat.PrimaryTopic,
		SecondaryTopics: cat.SecondaryTopics,
		Confidence:      cat.Confidence,
		Reasoning:       cat.Reasoning,
	}
	if cat.CustomTopic != nil {
		meta.CustomTopic = *cat.CustomTopic
	}
	return meta, nil
}
