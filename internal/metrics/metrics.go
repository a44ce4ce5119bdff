package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zapdesk_messages_sent_total",
		Help: "Outbound messages by type and outcome.",
	}, []string{"type", "outcome"})

	MessagesEdited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zapdesk_messages_edited_total",
		Help: "Message edits by outcome.",
	}, []string{"outcome"})

	Assignments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zapdesk_assignments_total",
		Help: "Assignment operations by kind and outcome.",
	}, []string{"kind", "outcome"})

	Reactions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zapdesk_reactions_total",
		Help: "Reaction upserts.",
	})

	AICalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zapdesk_ai_calls_total",
		Help: "LLM calls by feature and outcome.",
	}, []string{"feature", "outcome"})

	InstanceChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zapdesk_instance_checks_total",
		Help: "Instance status polls by resulting state.",
	}, []string{"state"})
)

// Outcome buckets a result for counter labels.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
