package orchestratornode

import (
	"context"

	"github.com/tanpawarit/merchant-sales-agent/agent/persuasion"
)

func DecidePersuasion(ctx context.Context, in *GraphState, sink AuditSink) (*GraphState, error) {
	if in.Done() {
		return in, nil
	}

	in.Intent = persuasion.DetectIntent(in.LastText)
	in.Objection = persuasion.ClassifyObjection(in.LastText)
	if in.Objection != "" && sink != nil {
		sink.RecordObjection(ctx, in.StoreID, in.ConversationID, string(in.Objection), in.LastText)
	}

	in.Strategy = persuasion.DecidePersuasion(persuasion.Signals{
		Intent:     in.Intent,
		Sentiment:  in.Sentiment,
		Confidence: in.Confidence,
		Intensity:  in.Profile.PersuasionLevel,
	})
	return in, nil
}
