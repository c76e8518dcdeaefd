package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

// ComposeAnswer turns the last successful completion into the buyer reply.
func ComposeAnswer(in *GraphState) (*GraphState, error) {
	if in.Done() {
		return in, nil
	}

	reply := in.Final
	if reply == nil {
		reply = in.First
	}
	text := ""
	if reply != nil && reply.Message != nil {
		text = strings.TrimSpace(reply.Message.Content)
	}
	if text == "" {
		text = EmptyReplyMessage
	}

	data := map[string]any{
		"strategy": string(in.Strategy),
	}
	if used := in.toolsUsed(); len(used) > 0 {
		data["toolsUsed"] = used
	}

	in.finish(contractx.StatusAnswered, contractx.Response{
		Message:          text,
		SuggestedActions: DeriveActions(text),
		Data:             data,
	})
	return in, nil
}

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil || in.Terminal == nil {
		return GraphOutput{}, fmt.Errorf("%w: turn finished without a response", contractx.ErrValidation)
	}
	return GraphOutput{Response: *in.Terminal}, nil
}

// DeriveActions suggests follow-up quick replies from the agent's answer.
func DeriveActions(content string) []string {
	lower := strings.ToLower(content)
	var actions []string
	if strings.Contains(lower, "price") {
		actions = append(actions, "Check Delivery Cost")
	}
	if strings.Contains(lower, "item") {
		actions = append(actions, "View Similar Items")
	}
	if len(actions) == 0 {
		return []string{"Ask about Delivery"}
	}
	return actions
}
