package orchestratornode

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/merchant-sales-agent/agent/persuasion"
	"github.com/tanpawarit/merchant-sales-agent/agent/prompt"
)

func BuildPrompt(ctx context.Context, in *GraphState, builder PromptBuilder) (*GraphState, error) {
	if in.Done() {
		return in, nil
	}

	msgs, err := builder.Build(ctx, prompt.SalesInput{
		Profile:   in.Profile,
		Knowledge: in.Knowledge,
		Strategy:  persuasion.Advice(in.Strategy),
		History:   in.History,
	})
	if err != nil {
		log.Error().Err(err).Str("store_id", in.StoreID).Str("stage", "build_prompt").Msg("prompt build failed")
		in.degrade()
		return in, nil
	}
	in.Prompt = msgs
	return in, nil
}
