package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ZapDesk/entity"
)

// MinMessagesForSummary is the floor below which no summary is produced.
const MinMessagesForSummary = 5

const summarySystemPrompt = `You are a customer-service assistant. Produce objective,
useful conversation summaries. Always answer with valid JSON and no markdown.`

// SummaryResult is the structured outcome of either path.
type SummaryResult struct {
	Summary     string   `json:"summary"`
	KeyPoints   []string `json:"key_points"`
	ActionItems []string `json:"action_items"`
	Sentiment   string   `json:"sentiment"`
	Source      string   `json:"source"` // "ai" | "heuristic"
}

// Summarize builds a structured summary from the newest messages
// (callers pass them newest-first, at most 30). It requires at least
// MinMessagesForSummary messages.
func (c *Client) Summarize(ctx context.Context, contactName string, messages []entity.Message) (*SummaryResult, error) {
	if len(messages) < MinMessagesForSummary {
		return nil, fmt.Errorf("summary: need at least %d messages, have %d", MinMessagesForSummary, len(messages))
	}
	if c == nil {
		return HeuristicSummary(contactName, messages), nil
	}

	// Oldest first for the prompt.
	var lines []string
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		sender := "Customer"
		if m.IsFromMe {
			sender = "Agent"
		}
		lines = append(lines, fmt.Sprintf("[%s]: %s", sender, m.Content))
	}

	prompt := fmt.Sprintf(`Analyze this WhatsApp conversation and produce a structured summary.

**Conversation with: %s**

%s

**Instructions:**
1. Write a concise summary (max 200 words) of what was discussed
2. List the key points (max 5)
3. Identify pending actions or next steps (max 3)
4. Rate the overall sentiment: "positive", "neutral" or "negative"

Return ONLY valid JSON without markdown:
{
  "summary": "...",
  "key_points": ["..."],
  "action_items": ["..."],
  "sentiment": "positive"
}`, contactName, strings.Join(lines, "\n"))

	raw, err := c.complete(ctx, summarySystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var result SummaryResult
	if err := json.Unmarshal([]byte(stripFences(raw)), &result); err != nil {
		return nil, fmt.Errorf("summary: decode model output: %w", err)
	}
	result.Source = "ai"
	return &result, nil
}

var positiveWords = []string{"thanks", "thank you", "perfect", "great", "excellent", "wonderful", "loved"}
var negativeWords = []string{"problem", "error", "bad", "terrible", "cancel", "complaint"}

var summaryTemplates = []string{
	"Conversation with %s containing %d exchanged messages.",
	"Support thread with %s: %d messages in the analyzed period.",
	"Interaction with %s over the analyzed period (%d messages).",
}

var keyPointTemplates = []string{
	"Customer initiated contact",
	"Information was requested",
	"Agent provided guidance",
	"Documents or media were shared",
	"Conversation in progress",
}

var actionItemTemplates = []string{
	"Follow up on resolution within 24h",
	"Check customer satisfaction",
	"Update records if needed",
}

// HeuristicSummary is the deterministic non-AI fallback: keyword-counted
// sentiment plus templated text keyed on the message count, so the same
// thread always yields the same summary.
func HeuristicSummary(contactName string, messages []entity.Message) *SummaryResult {
	var inbound, outbound int
	var all strings.Builder
	for _, m := range messages {
		if m.IsFromMe {
			outbound++
		} else {
			inbound++
		}
		all.WriteString(strings.ToLower(m.Content))
		all.WriteString(" ")
	}
	text := all.String()

	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			neg++
		}
	}

	sentiment := "neutral"
	if pos > neg {
		sentiment = "positive"
	} else if neg > pos {
		sentiment = "negative"
	}

	n := len(messages)
	return &SummaryResult{
		Summary:     fmt.Sprintf(summaryTemplates[n%len(summaryTemplates)], contactName, n),
		KeyPoints:   keyPointTemplates[:3+n%2],
		ActionItems: actionItemTemplates[:1+n%2],
		Sentiment:   sentiment,
		Source:      "heuristic",
	}
}
