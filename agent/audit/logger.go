package audit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/merchant-sales-agent/agent/redact"
)

const (
	maxSummaryRunes = 500
	defaultConvID   = "anon"
	flagPIIRedacted = "PII_REDACTED"
	flagTruncated   = "TRUNCATED"
)

type Repository interface {
	InsertTrace(ctx context.Context, trace *AiTrace) error
	InsertObjection(ctx context.Context, ev *ObjectionEvent) error
}

// Logger writes compliance trails. Every method is best-effort: failures are
// logged and never returned to the caller.
type Logger struct {
	repo      Repository
	sanitizer *redact.Sanitizer
	now       func() time.Time
}

func NewLogger(repo Repository, sanitizer *redact.Sanitizer) *Logger {
	if sanitizer == nil {
		sanitizer = redact.Default
	}
	return &Logger{repo: repo, sanitizer: sanitizer, now: time.Now}
}

func (l *Logger) LogAiTrace(ctx context.Context, tr Trace) {
	if l == nil || l.repo == nil {
		return
	}

	var flags []string
	if len(l.sanitizer.Findings(tr.InputSummary)) > 0 || len(l.sanitizer.Findings(tr.OutputSummary)) > 0 {
		flags = append(flags, flagPIIRedacted)
	}
	input, inCut := truncate(l.sanitizer.Redact(tr.InputSummary), maxSummaryRunes)
	output, outCut := truncate(l.sanitizer.Redact(tr.OutputSummary), maxSummaryRunes)
	if inCut || outCut {
		flags = append(flags, flagTruncated)
	}

	row := &AiTrace{
		ID:             uuid.NewString(),
		StoreID:        tr.StoreID,
		ConversationID: tr.ConversationID,
		RequestID:      tr.RequestID,
		Channel:        tr.Channel,
		Model:          tr.Model,
		Status:         tr.Status,
		ToolsUsed:      nonNil(tr.ToolsUsed),
		RetrievedDocs:  nonNil(tr.RetrievedDocs),
		InputSummary:   input,
		OutputSummary:  output,
		GuardrailFlags: nonNil(flags),
		LatencyMs:      tr.Latency.Milliseconds(),
		CreatedAt:      l.now().UTC(),
	}
	if err := l.repo.InsertTrace(ctx, row); err != nil {
		log.Error().
			Err(err).
			Str("store_id", tr.StoreID).
			Str("request_id", tr.RequestID).
			Str("stage", "audit").
			Msg("write ai trace failed")
	}
}

func (l *Logger) RecordObjection(ctx context.Context, storeID, conversationID, category, rawText string) {
	if l == nil || l.repo == nil || strings.TrimSpace(category) == "" {
		return
	}
	if strings.TrimSpace(conversationID) == "" {
		conversationID = defaultConvID
	}
	text, _ := truncate(l.sanitizer.Redact(rawText), maxSummaryRunes)
	ev := &ObjectionEvent{
		ID:             uuid.NewString(),
		StoreID:        storeID,
		ConversationID: conversationID,
		Category:       category,
		RawText:        text,
		CreatedAt:      l.now().UTC(),
	}
	if err := l.repo.InsertObjection(ctx, ev); err != nil {
		log.Warn().Err(err).Str("store_id", storeID).Str("category", category).Msg("write objection event failed")
	}
}

func truncate(s string, n int) (string, bool) {
	r := []rune(s)
	if len(r) <= n {
		return s, false
	}
	return string(r[:n]), true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
