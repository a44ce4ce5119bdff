package llm

import (
	"context"
	"fmt"
	"strings"
)

const (
	ActionExpand     = "expand"
	ActionRephrase   = "rephrase"
	ActionMyTone     = "my_tone"
	ActionFriendly   = "friendly"
	ActionFormal     = "formal"
	ActionFixGrammar = "fix_grammar"
	ActionTranslate  = "translate"
)

// KnownAction reports whether the compose action is supported.
func KnownAction(action string) bool {
	switch action {
	case ActionExpand, ActionRephrase, ActionMyTone, ActionFriendly,
		ActionFormal, ActionFixGrammar, ActionTranslate:
		return true
	}
	return false
}

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
}

// Compose rewrites a draft according to the action. styleExamples feeds
// my_tone with the agent's recent sent messages; with no credential a
// fixed textual transform is applied instead.
func (c *Client) Compose(ctx context.Context, message, action, targetLanguage string, styleExamples []string) (string, error) {
	if !KnownAction(action) {
		return "", fmt.Errorf("compose: unknown action %q", action)
	}
	if c == nil {
		return mockCompose(message, action), nil
	}

	var prompt string
	switch action {
	case ActionExpand:
		prompt = fmt.Sprintf(`You are a customer-service assistant. Expand this short message
into a complete, professional reply, keeping the meaning but adding useful context:

%q

Answer only with the expanded text, no explanations.`, message)

	case ActionRephrase:
		prompt = fmt.Sprintf(`Rephrase this message keeping exactly the same meaning but using
different words and structure:

%q

Answer only with the rephrased text.`, message)

	case ActionMyTone:
		if len(styleExamples) == 0 {
			prompt = fmt.Sprintf(`Rewrite this message in a professional and friendly way:

%q

Answer only with the rewritten message.`, message)
		} else {
			var history strings.Builder
			for i, ex := range styleExamples {
				fmt.Fprintf(&history, "%d. %q\n", i+1, ex)
			}
			prompt = fmt.Sprintf(`Here are examples of messages this agent sent before:

%s
Now rewrite this message in the same writing style as the examples above,
including tone, vocabulary and emoji usage:

%q

Answer only with the rewritten message in that style.`, history.String(), message)
		}

	case ActionFriendly:
		prompt = fmt.Sprintf(`Rewrite this message in a more casual, friendly and welcoming way.
Use fitting emojis:

%q

Answer only with the friendly version.`, message)

	case ActionFormal:
		prompt = fmt.Sprintf(`Rewrite this message in a more professional and formal way, removing
slang and keeping a corporate tone:

%q

Answer only with the formal version.`, message)

	case ActionFixGrammar:
		prompt = fmt.Sprintf(`Fix every grammar, spelling and punctuation mistake in this message,
keeping its tone and meaning:

%q

Answer only with the corrected text.`, message)

	case ActionTranslate:
		lang, ok := languageNames[targetLanguage]
		if !ok {
			lang = targetLanguage
			if lang == "" {
				lang = languageNames["en"]
			}
		}
		prompt = fmt.Sprintf(`Translate this message to %s, keeping tone and context:

%q

Answer only with the translation.`, lang, message)
	}

	composed, err := c.complete(ctx, "You rewrite customer-service messages. Answer only with the rewritten text.", prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(composed), nil
}

// mockCompose applies deterministic transforms when no model is wired.
func mockCompose(message, action string) string {
	switch action {
	case ActionExpand:
		return message + " We remain at your disposal for anything you need. Looking forward to your reply."
	case ActionFriendly:
		return message + " 😊"
	case ActionFormal:
		return "Dear customer, " + message
	case ActionFixGrammar, ActionRephrase, ActionMyTone, ActionTranslate:
		return message
	default:
		return message
	}
}
