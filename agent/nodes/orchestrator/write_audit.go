package orchestratornode

import (
	"context"
	"time"

	"github.com/tanpawarit/merchant-sales-agent/agent/audit"
)

// WriteAudit records a redacted trace of every turn that reached the model.
func WriteAudit(ctx context.Context, in *GraphState, sink AuditSink, now func() time.Time) (*GraphState, error) {
	if sink == nil || in.ModelCalls == 0 {
		return in, nil
	}

	output := ""
	if in.Terminal != nil {
		output = in.Terminal.Message
	}

	sink.LogAiTrace(ctx, audit.Trace{
		StoreID:        in.StoreID,
		ConversationID: in.ConversationID,
		RequestID:      in.RequestID,
		Channel:        string(in.Channel),
		Model:          in.ModelName,
		Status:         string(in.Status),
		ToolsUsed:      in.toolsUsed(),
		RetrievedDocs:  in.retrievedDocIDs(),
		InputSummary:   in.LastText,
		OutputSummary:  output,
		Latency:        now().Sub(in.Started),
	})
	return in, nil
}
