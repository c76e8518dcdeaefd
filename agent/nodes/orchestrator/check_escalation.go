package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
	"github.com/tanpawarit/merchant-sales-agent/agent/escalation"
)

// CheckEscalation hands risky conversations to a person before any model
// call. The buyer gets the handoff copy even when persisting the ticket fails.
func CheckEscalation(ctx context.Context, in *GraphState, escalator Escalator) (*GraphState, error) {
	if in.Done() {
		return in, nil
	}

	res := escalation.Evaluate(in.LastText, in.Confidence, len(in.History))
	if !res.ShouldEscalate {
		return in, nil
	}
	in.Trigger = res.Trigger

	data := map[string]any{"trigger": string(res.Trigger)}
	ticket, err := escalator.TriggerHandoff(ctx, escalation.Handoff{
		StoreID:        in.StoreID,
		ConversationID: in.ConversationID,
		Trigger:        res.Trigger,
		Reason:         res.Reason,
		AISummary:      fmt.Sprintf("Auto-escalated via trigger: %s.", res.Trigger),
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("store_id", in.StoreID).
			Str("trigger", string(res.Trigger)).
			Str("stage", "check_escalation").
			Msg("handoff persistence failed")
	} else if ticket != nil {
		data["ticketId"] = ticket.ID
		data["priority"] = string(ticket.Priority)
	}

	in.finish(contractx.StatusHandedOff, contractx.Response{
		Message: escalation.HandoffCopy(res.Trigger),
		Data:    data,
	})
	return in, nil
}
