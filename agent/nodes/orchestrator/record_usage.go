package orchestratornode

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/merchant-sales-agent/agent/usage"
)

// RecordUsage bills the turn once, summing every model call that succeeded.
// It runs even for degraded turns so a message that reached the model is
// always counted.
func RecordUsage(ctx context.Context, in *GraphState, limiter Limiter) (*GraphState, error) {
	if in.ModelCalls == 0 {
		return in, nil
	}

	err := limiter.LogUsage(ctx, usage.Record{
		StoreID:      in.StoreID,
		Model:        in.ModelName,
		InputTokens:  in.InputTokens,
		OutputTokens: in.OutputTokens,
		Channel:      string(in.Channel),
		RequestID:    in.RequestID,
		Calls:        in.ModelCalls,
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("store_id", in.StoreID).
			Str("request_id", in.RequestID).
			Str("stage", "record_usage").
			Msg("usage logging incomplete")
	}
	return in, nil
}
