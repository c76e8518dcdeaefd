package prompt

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

var (
	//go:embed template/sales.txt
	salesRaw string

	//go:embed template/rescue.txt
	rescueRaw string
)

const (
	historyKey       = "history"
	noKnowledge      = "No specific knowledge found. Ask for clarification."
	briefInstruction = "Keep replies under 3 sentences."
	fullInstruction  = "Be detailed."
	defaultStoreName = "the store"
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Sales  string
	Rescue string
}

// LoadPromptSet returns the embedded prompts, trimmed.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Sales:  strings.TrimSpace(salesRaw),
		Rescue: strings.TrimSpace(rescueRaw),
	}
}

// SalesInput is everything the sales system prompt is rendered from.
type SalesInput struct {
	Profile   contractx.StoreProfile
	Knowledge []contractx.RetrievalResult
	Strategy  string
	History   []*schema.Message
}

// SalesBuilder renders the system prompt and appends the conversation.
type SalesBuilder struct {
	tpl *prompt.DefaultChatTemplate
}

func NewSalesBuilder(set PromptSet) (*SalesBuilder, error) {
	if strings.TrimSpace(set.Sales) == "" {
		return nil, fmt.Errorf("%w: sales", contractx.ErrPromptMissing)
	}
	return &SalesBuilder{
		tpl: prompt.FromMessages(schema.FString,
			schema.SystemMessage(set.Sales),
			schema.MessagesPlaceholder(historyKey, false),
		),
	}, nil
}

func (b *SalesBuilder) Build(ctx context.Context, in SalesInput) ([]*schema.Message, error) {
	msgs, err := b.tpl.Format(ctx, salesVars(in))
	if err != nil {
		return nil, fmt.Errorf("format sales prompt: %w", err)
	}
	return msgs, nil
}

func salesVars(in SalesInput) map[string]any {
	p := in.Profile

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = defaultStoreName
	}
	category := ""
	if c := strings.TrimSpace(p.Category); c != "" {
		category = " (" + c + ")"
	}
	tone := strings.TrimSpace(p.TonePreset)
	if tone == "" {
		tone = "Friendly"
	}
	brevity := fullInstruction
	if strings.EqualFold(strings.TrimSpace(p.BrevityMode), "short") {
		brevity = briefInstruction
	}
	level := p.PersuasionLevel
	if level < 0 {
		level = 0
	}

	history := in.History
	if history == nil {
		history = []*schema.Message{}
	}

	return map[string]any{
		"store_name":       name,
		"store_category":   category,
		"tone":             tone,
		"brevity":          brevity,
		"persuasion_level": strconv.Itoa(level),
		"knowledge":        formatKnowledge(in.Knowledge),
		"strategy":         in.Strategy,
		historyKey:         history,
	}
}

func formatKnowledge(results []contractx.RetrievalResult) string {
	if len(results) == 0 {
		return noKnowledge
	}
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("[%s]: %s", r.SourceType, strings.TrimSpace(r.Content)))
	}
	return strings.Join(lines, "\n")
}

