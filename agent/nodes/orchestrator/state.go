package orchestratornode

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tanpawarit/merchant-sales-agent/agent/audit"
	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
	"github.com/tanpawarit/merchant-sales-agent/agent/escalation"
	"github.com/tanpawarit/merchant-sales-agent/agent/llm"
	"github.com/tanpawarit/merchant-sales-agent/agent/persuasion"
	"github.com/tanpawarit/merchant-sales-agent/agent/prompt"
	"github.com/tanpawarit/merchant-sales-agent/agent/tool"
	"github.com/tanpawarit/merchant-sales-agent/agent/usage"
)

const (
	FallbackMessage     = "I'm having trouble connecting right now."
	LimitReachedMessage = "Store chat is currently unavailable. The owner has been notified."
	EmptyReplyMessage   = "I'm checking that for you right now."

	RequiredActionBuyAddon = "BUY_ADDON_OR_UPGRADE"

	defaultConfidence = 0.9
	defaultSentiment  = 0.5
)

type Limiter interface {
	CheckLimits(ctx context.Context, storeID string) (usage.Decision, error)
	LogUsage(ctx context.Context, rec usage.Record) error
}

type Escalator interface {
	TriggerHandoff(ctx context.Context, h escalation.Handoff) (*escalation.Ticket, error)
}

type Retriever interface {
	RetrieveContext(ctx context.Context, storeID, query string, limit int) []contractx.RetrievalResult
}

type AuditSink interface {
	LogAiTrace(ctx context.Context, tr audit.Trace)
	RecordObjection(ctx context.Context, storeID, conversationID, category, rawText string)
}

type ModelCaller interface {
	Generate(ctx context.Context, channel contractx.Channel, msgs []*schema.Message, tools []*schema.ToolInfo, opts ...model.Option) (*llm.Reply, error)
}

type PromptBuilder interface {
	Build(ctx context.Context, in prompt.SalesInput) ([]*schema.Message, error)
}

type GraphInput struct {
	StoreID string
	History []*schema.Message
	Options contractx.Options
}

type GraphOutput struct {
	Response contractx.Response
}

// GraphState flows through every stage of one turn. Once Terminal is set the
// remaining stages pass it through untouched, except the bookkeeping stages
// which still account for model calls that already happened.
type GraphState struct {
	StoreID        string
	ConversationID string
	RequestID      string
	Channel        contractx.Channel
	History        []*schema.Message
	LastText       string
	Confidence     float64
	Sentiment      float64
	Started        time.Time

	Decision  usage.Decision
	Trigger   escalation.Trigger
	Profile   contractx.StoreProfile
	Knowledge []contractx.RetrievalResult
	Intent    persuasion.Intent
	Objection persuasion.Objection
	Strategy  persuasion.Strategy

	Prompt       []*schema.Message
	First        *llm.Reply
	ToolMessages []*schema.Message
	ToolResults  []contractx.ToolResult
	Final        *llm.Reply

	ModelName    string
	ModelCalls   int
	InputTokens  int
	OutputTokens int

	Status   contractx.TurnStatus
	Terminal *contractx.Response
}

// Done reports whether a stage already produced the turn's response.
func (s *GraphState) Done() bool {
	return s != nil && s.Terminal != nil
}

func (s *GraphState) finish(status contractx.TurnStatus, resp contractx.Response) {
	if resp.Data == nil {
		resp.Data = map[string]any{}
	}
	resp.Data["status"] = string(status)
	s.Status = status
	s.Terminal = &resp
}

func (s *GraphState) degrade() {
	s.finish(contractx.StatusDegraded, contractx.Response{Message: FallbackMessage})
}

func (s *GraphState) account(r *llm.Reply) {
	if r == nil {
		return
	}
	s.ModelCalls++
	s.InputTokens += r.InputTokens
	s.OutputTokens += r.OutputTokens
	if r.Model != "" {
		s.ModelName = r.Model
	}
}

func (s *GraphState) toolsUsed() []string {
	names := make([]string, 0, len(s.ToolResults))
	for _, r := range s.ToolResults {
		names = append(names, r.Tool)
	}
	return names
}

func (s *GraphState) retrievedDocIDs() []string {
	ids := make([]string, 0, len(s.Knowledge))
	for _, k := range s.Knowledge {
		ids = append(ids, k.SourceID)
	}
	return ids
}

// Tools bundles the declared tool schema with its executor.
type Tools struct {
	Infos    []*schema.ToolInfo
	Executor tool.Executor
}
