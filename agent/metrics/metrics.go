package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal counts processed buyer messages by channel and final status.
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "msa",
		Subsystem: "agent",
		Name:      "turns_total",
		Help:      "Total buyer messages handled by channel and outcome status.",
	}, []string{"channel", "status"})

	// EscalationsTotal counts human handoffs by trigger.
	EscalationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "msa",
		Subsystem: "agent",
		Name:      "escalations_total",
		Help:      "Total handoffs to a person by trigger.",
	}, []string{"trigger"})

	// ModelCallDuration tracks provider latency per call position.
	ModelCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "msa",
		Subsystem: "agent",
		Name:      "model_call_duration_seconds",
		Help:      "Model provider call duration in seconds.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15},
	}, []string{"call", "result"})

	// ModelTokensTotal counts prompt and completion tokens.
	ModelTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "msa",
		Subsystem: "agent",
		Name:      "model_tokens_total",
		Help:      "Total tokens consumed by direction.",
	}, []string{"direction"})

	// ToolExecutionsTotal counts tool calls by tool and result.
	ToolExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "msa",
		Subsystem: "agent",
		Name:      "tool_executions_total",
		Help:      "Total tool executions by tool name and result.",
	}, []string{"tool", "result"})

	// IncidentsTotal counts rescue incident reports and classifications.
	IncidentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "msa",
		Subsystem: "rescue",
		Name:      "incidents_total",
		Help:      "Total incident events by stage and outcome.",
	}, []string{"stage", "outcome"})
)

// Result maps an error to the "ok"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
