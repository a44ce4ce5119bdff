package llm

import (
	"context"
	"strings"
	"testing"
	"time"

	"ZapDesk/entity"
)

func textMsg(content string, fromMe bool) entity.Message {
	return entity.Message{
		Content:     content,
		MessageType: entity.MessageText,
		IsFromMe:    fromMe,
		Timestamp:   time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestHeuristicSummaryDeterministic(t *testing.T) {
	messages := []entity.Message{
		textMsg("hi, I have a problem with my order", false),
		textMsg("let me check that for you", true),
		textMsg("order 123", false),
		textMsg("found it, fixing now", true),
		textMsg("thanks, perfect!", false),
	}

	first := HeuristicSummary("Maria", messages)
	second := HeuristicSummary("Maria", messages)

	if first.Summary != second.Summary {
		t.Errorf("summary not deterministic: %q vs %q", first.Summary, second.Summary)
	}
	if first.Source != "heuristic" {
		t.Errorf("source = %q, want heuristic", first.Source)
	}
	if !strings.Contains(first.Summary, "Maria") {
		t.Errorf("summary %q missing contact name", first.Summary)
	}
	if len(first.KeyPoints) == 0 || len(first.ActionItems) == 0 {
		t.Error("key points and action items must not be empty")
	}
}

func TestHeuristicSummarySentiment(t *testing.T) {
	positive := []entity.Message{
		textMsg("thanks so much", false),
		textMsg("you are welcome", true),
		textMsg("perfect service", false),
		textMsg("great", false),
		textMsg("excellent", false),
	}
	if got := HeuristicSummary("A", positive).Sentiment; got != "positive" {
		t.Errorf("sentiment = %q, want positive", got)
	}

	negative := []entity.Message{
		textMsg("this is a problem", false),
		textMsg("sorry about the error", true),
		textMsg("terrible experience", false),
		textMsg("I want to cancel", false),
		textMsg("filing a complaint", false),
	}
	if got := HeuristicSummary("A", negative).Sentiment; got != "negative" {
		t.Errorf("sentiment = %q, want negative", got)
	}
}

func TestSummarizeRequiresMinimum(t *testing.T) {
	var c *Client
	_, err := c.Summarize(context.Background(), "Maria", []entity.Message{
		textMsg("hi", false),
	})
	if err == nil {
		t.Fatal("expected error below the message floor")
	}
}

func TestSummarizeNilClientFallsBack(t *testing.T) {
	var c *Client
	messages := []entity.Message{
		textMsg("one", false),
		textMsg("two", true),
		textMsg("three", false),
		textMsg("four", true),
		textMsg("five", false),
	}
	result, err := c.Summarize(context.Background(), "Maria", messages)
	if err != nil {
		t.Fatal(err)
	}
	if result.Source != "heuristic" {
		t.Errorf("source = %q, want heuristic", result.Source)
	}
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		`{"a":1}`:                 `{"a":1}`,
	}
	for in, want := range cases {
		if got := stripFences(in); got != want {
			t.Errorf("stripFences(%q) = %q, want %q", in, got, want)
		}
	}
}
