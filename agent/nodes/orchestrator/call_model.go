package orchestratornode

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/merchant-sales-agent/agent/llm"
	"github.com/tanpawarit/merchant-sales-agent/agent/metrics"
)

// CallModel is the first completion with the tool schema bound. Failure here
// degrades the turn and nothing is persisted.
func CallModel(ctx context.Context, in *GraphState, caller ModelCaller, tools Tools) (*GraphState, error) {
	if in.Done() {
		return in, nil
	}

	start := time.Now()
	reply, err := caller.Generate(ctx, in.Channel, in.Prompt, tools.Infos)
	observeCall("first", start, reply, err)
	if err != nil {
		log.Error().
			Err(err).
			Str("store_id", in.StoreID).
			Str("request_id", in.RequestID).
			Str("stage", "call_model").
			Msg("model call failed")
		in.degrade()
		return in, nil
	}

	in.First = reply
	in.account(reply)
	return in, nil
}

// CallModelAgain folds tool results into a second completion. It runs only
// when the first reply requested tools; a failure degrades the turn but the
// first call stays accounted.
func CallModelAgain(ctx context.Context, in *GraphState, caller ModelCaller, tools Tools) (*GraphState, error) {
	if in.Done() || in.First == nil || len(in.First.Message.ToolCalls) == 0 {
		return in, nil
	}

	msgs := make([]*schema.Message, 0, len(in.Prompt)+1+len(in.ToolMessages))
	msgs = append(msgs, in.Prompt...)
	msgs = append(msgs, in.First.Message)
	msgs = append(msgs, in.ToolMessages...)

	start := time.Now()
	reply, err := caller.Generate(ctx, in.Channel, msgs, tools.Infos)
	observeCall("second", start, reply, err)
	if err != nil {
		log.Error().
			Err(err).
			Str("store_id", in.StoreID).
			Str("request_id", in.RequestID).
			Str("stage", "call_model_again").
			Msg("follow-up model call failed")
		in.degrade()
		return in, nil
	}

	in.Final = reply
	in.account(reply)
	return in, nil
}

func observeCall(position string, start time.Time, reply *llm.Reply, err error) {
	metrics.ModelCallDuration.WithLabelValues(position, metrics.Result(err)).Observe(time.Since(start).Seconds())
	if reply != nil {
		metrics.ModelTokensTotal.WithLabelValues("input").Add(float64(reply.InputTokens))
		metrics.ModelTokensTotal.WithLabelValues("output").Add(float64(reply.OutputTokens))
	}
}
