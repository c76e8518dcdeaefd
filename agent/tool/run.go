package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

// RunCalls executes calls sequentially in request order and returns exactly
// one tool message per call, carrying the call's id. Failures become error
// payloads so the follow-up model call stays well-formed.
func RunCalls(ctx context.Context, exec Executor, scope Scope, calls []schema.ToolCall) ([]*schema.Message, []contractx.ToolResult) {
	if exec == nil {
		exec = DefaultExecutor()
	}

	messages := make([]*schema.Message, 0, len(calls))
	results := make([]contractx.ToolResult, 0, len(calls))
	for _, call := range calls {
		name := call.Function.Name

		result, err := runOne(ctx, exec, scope, call)
		if err != nil {
			result = contractx.ToolResult{Tool: name, Error: err.Error()}
		}
		if result.Error != "" {
			log.Warn().
				Str("store_id", scope.StoreID).
				Str("tool", name).
				Str("tool_call_id", call.ID).
				Str("tool_error", result.Error).
				Msg("tool call failed")
		}

		messages = append(messages, &schema.Message{
			Role:       schema.Tool,
			Content:    encodeResult(result),
			ToolCallID: call.ID,
		})
		results = append(results, result)
	}
	return messages, results
}

func runOne(ctx context.Context, exec Executor, scope Scope, call schema.ToolCall) (result contractx.ToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool=%s panicked: %v", call.Function.Name, r)
		}
	}()
	return exec(ctx, scope, call.Function.Name, call.Function.Arguments)
}

func encodeResult(result contractx.ToolResult) string {
	var payload any = result.Result
	if result.Error != "" {
		payload = map[string]string{"error": result.Error}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		raw, _ = json.Marshal(map[string]string{"error": "encode tool result: " + err.Error()})
	}
	return string(raw)
}
