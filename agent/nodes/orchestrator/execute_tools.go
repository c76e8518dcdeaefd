package orchestratornode

import (
	"context"

	"github.com/tanpawarit/merchant-sales-agent/agent/metrics"
	"github.com/tanpawarit/merchant-sales-agent/agent/tool"
)

// ExecuteTools runs the tool calls of the first reply sequentially, in the
// order the model requested them.
func ExecuteTools(ctx context.Context, in *GraphState, tools Tools) (*GraphState, error) {
	if in.Done() || in.First == nil || len(in.First.Message.ToolCalls) == 0 {
		return in, nil
	}

	scope := tool.Scope{StoreID: in.StoreID, ConversationID: in.ConversationID}
	in.ToolMessages, in.ToolResults = tool.RunCalls(ctx, tools.Executor, scope, in.First.Message.ToolCalls)

	for _, r := range in.ToolResults {
		result := "ok"
		if r.Error != "" {
			result = "error"
		}
		metrics.ToolExecutionsTotal.WithLabelValues(r.Tool, result).Inc()
	}
	return in, nil
}
