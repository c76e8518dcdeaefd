package orchestratornode

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
	"github.com/tanpawarit/merchant-sales-agent/agent/retrieval"
)

// LoadContext fetches grounding knowledge and the store profile in parallel.
// Both lookups fail soft.
func LoadContext(ctx context.Context, in *GraphState, retriever Retriever, profiles contractx.ProfileSource) (*GraphState, error) {
	if in.Done() {
		return in, nil
	}

	var (
		knowledge []contractx.RetrievalResult
		profile   = contractx.DefaultStoreProfile(in.StoreID)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if retriever != nil {
			knowledge = retriever.RetrieveContext(gctx, in.StoreID, in.LastText, retrieval.DefaultLimit)
		}
		return nil
	})
	g.Go(func() error {
		if profiles == nil {
			return nil
		}
		p, err := profiles.LoadProfile(gctx, in.StoreID)
		if err != nil {
			log.Warn().
				Err(err).
				Str("store_id", in.StoreID).
				Str("stage", "load_context").
				Msg("store profile unavailable, using defaults")
			return nil
		}
		profile = p
		return nil
	})
	_ = g.Wait()

	in.Knowledge = knowledge
	in.Profile = profile
	return in, nil
}
