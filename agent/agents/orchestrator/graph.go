package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	nodex "github.com/tanpawarit/merchant-sales-agent/agent/nodes/orchestrator"
)

type stage struct {
	name string
	run  func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error)
}

func (o *Orchestrator) stages() []stage {
	return []stage{
		{"check_limits", func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.CheckLimits(ctx, in, o.limiter)
		}},
		{"check_escalation", func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.CheckEscalation(ctx, in, o.escalator)
		}},
		{"load_context", func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadContext(ctx, in, o.retriever, o.profiles)
		}},
		{"decide_persuasion", func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.DecidePersuasion(ctx, in, o.audit)
		}},
		{"build_prompt", func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.BuildPrompt(ctx, in, o.prompts)
		}},
		{"call_model", func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.CallModel(ctx, in, o.caller, o.tools)
		}},
		{"execute_tools", func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ExecuteTools(ctx, in, o.tools)
		}},
		{"call_model_again", func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.CallModelAgain(ctx, in, o.caller, o.tools)
		}},
		{"compose_answer", func(_ context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ComposeAnswer(in)
		}},
		{"record_usage", func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RecordUsage(ctx, in, o.limiter)
		}},
		{"write_audit", func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.WriteAudit(ctx, in, o.audit, o.now)
		}},
	}
}

// compileHandleMessageGraph wires the turn as a fixed linear chain:
// validate_request -> stages... -> finalize_reply.
func (o *Orchestrator) compileHandleMessageGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	prev := "validate_request"
	edges := [][2]string{{compose.START, prev}}
	for _, st := range o.stages() {
		if err := graph.AddLambdaNode(st.name, compose.InvokableLambda(st.run)); err != nil {
			return nil, fmt.Errorf("add node %s: %w", st.name, err)
		}
		edges = append(edges, [2]string{prev, st.name})
		prev = st.name
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}
	edges = append(edges,
		[2]string{prev, "finalize_reply"},
		[2]string{"finalize_reply", compose.END},
	)

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.handle_message"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
