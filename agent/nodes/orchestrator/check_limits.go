package orchestratornode

import (
	"context"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

// CheckLimits is the quota gate. A storage failure degrades the turn without
// calling the model.
func CheckLimits(ctx context.Context, in *GraphState, limiter Limiter) (*GraphState, error) {
	if in.Done() {
		return in, nil
	}

	decision, err := limiter.CheckLimits(ctx, in.StoreID)
	if err != nil {
		log.Error().
			Err(err).
			Str("store_id", in.StoreID).
			Str("request_id", in.RequestID).
			Str("stage", "check_limits").
			Msg("usage check failed")
		in.degrade()
		return in, nil
	}
	in.Decision = decision

	if !decision.Allowed {
		log.Info().
			Str("store_id", in.StoreID).
			Str("reason", decision.Reason).
			Msg("turn blocked by usage limit")
		in.finish(contractx.StatusLimitReached, contractx.Response{
			Message: LimitReachedMessage,
			Data: map[string]any{
				"requiredAction": RequiredActionBuyAddon,
				"reason":         decision.Reason,
				"usage":          decision.Usage,
			},
		})
	}
	return in, nil
}
