package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
	"github.com/tanpawarit/merchant-sales-agent/agent/metrics"
	nodex "github.com/tanpawarit/merchant-sales-agent/agent/nodes/orchestrator"
)

var (
	ErrInvalidStore   = nodex.ErrInvalidStore
	ErrInvalidHistory = nodex.ErrInvalidHistory
	ErrInvalidMessage = nodex.ErrInvalidMessage
)

// Deps are the collaborators of one turn. Retriever, Profiles and Audit are
// optional; the rest are required.
type Deps struct {
	Limiter   nodex.Limiter
	Escalator nodex.Escalator
	Retriever nodex.Retriever
	Profiles  contractx.ProfileSource
	Audit     nodex.AuditSink
	Caller    nodex.ModelCaller
	Prompts   nodex.PromptBuilder
	Tools     nodex.Tools
}

type Orchestrator struct {
	limiter   nodex.Limiter
	escalator nodex.Escalator
	retriever nodex.Retriever
	profiles  contractx.ProfileSource
	audit     nodex.AuditSink
	caller    nodex.ModelCaller
	prompts   nodex.PromptBuilder
	tools     nodex.Tools

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(deps Deps) (*Orchestrator, error) {
	if deps.Limiter == nil {
		return nil, errors.New("usage limiter is required")
	}
	if deps.Escalator == nil {
		return nil, errors.New("escalation service is required")
	}
	if deps.Caller == nil {
		return nil, errors.New("model caller is required")
	}
	if deps.Prompts == nil {
		return nil, errors.New("prompt builder is required")
	}

	o := &Orchestrator{
		limiter:   deps.Limiter,
		escalator: deps.Escalator,
		retriever: deps.Retriever,
		profiles:  deps.Profiles,
		audit:     deps.Audit,
		caller:    deps.Caller,
		prompts:   deps.Prompts,
		tools:     deps.Tools,
		now:       time.Now,
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage runs one buyer turn. It returns an error only for invalid
// input; every runtime failure becomes a degraded response.
func (o *Orchestrator) HandleMessage(ctx context.Context, storeID string, history []*schema.Message, opts contractx.Options) (contractx.Response, error) {
	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		StoreID: storeID,
		History: history,
		Options: opts,
	})
	if err != nil {
		if errors.Is(err, contractx.ErrValidation) {
			return contractx.Response{}, err
		}
		log.Error().Err(err).Str("store_id", storeID).Str("request_id", opts.RequestID).Msg("turn pipeline failed")
		out = nodex.GraphOutput{Response: contractx.Response{
			Message: nodex.FallbackMessage,
			Data:    map[string]any{"status": string(contractx.StatusDegraded)},
		}}
	}

	channel := opts.Channel
	if channel == "" {
		channel = contractx.ChannelMerchant
	}
	status, _ := out.Response.Data["status"].(string)
	metrics.TurnsTotal.WithLabelValues(string(channel), status).Inc()
	if trigger, ok := out.Response.Data["trigger"].(string); ok {
		metrics.EscalationsTotal.WithLabelValues(trigger).Inc()
	}

	return out.Response, nil
}
