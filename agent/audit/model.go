package audit

import (
	"time"

	"github.com/uptrace/bun"
)

// AiTrace is a redacted, append-only record of one interaction.
type AiTrace struct {
	bun.BaseModel `bun:"table:ai_traces,alias:at"`

	ID             string    `bun:"id,pk"`
	StoreID        string    `bun:"store_id,notnull"`
	ConversationID string    `bun:"conversation_id"`
	RequestID      string    `bun:"request_id"`
	Channel        string    `bun:"channel"`
	Model          string    `bun:"model"`
	Status         string    `bun:"status,notnull"`
	ToolsUsed      []string  `bun:"tools_used,array"`
	RetrievedDocs  []string  `bun:"retrieved_docs,array"`
	InputSummary   string    `bun:"input_summary"`
	OutputSummary  string    `bun:"output_summary"`
	GuardrailFlags []string  `bun:"guardrail_flags,array"`
	LatencyMs      int64     `bun:"latency_ms"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

type ObjectionEvent struct {
	bun.BaseModel `bun:"table:objection_events,alias:oe"`

	ID             string    `bun:"id,pk"`
	StoreID        string    `bun:"store_id,notnull"`
	ConversationID string    `bun:"conversation_id,notnull"`
	Category       string    `bun:"category,notnull"`
	RawText        string    `bun:"raw_text"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

// Trace is the caller-facing input of LogAiTrace. Summaries are redacted
// before they are stored.
type Trace struct {
	StoreID        string
	ConversationID string
	RequestID      string
	Channel        string
	Model          string
	Status         string
	ToolsUsed      []string
	RetrievedDocs  []string
	InputSummary   string
	OutputSummary  string
	Latency        time.Duration
}
