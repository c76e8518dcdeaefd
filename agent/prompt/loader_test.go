package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

func TestLoadPromptSetEmbedsTemplates(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	if !strings.Contains(set.Sales, "{store_name}") {
		t.Fatalf("sales prompt missing store placeholder: %q", set.Sales)
	}
	if !strings.Contains(set.Rescue, "refreshSafe") {
		t.Fatalf("rescue prompt missing schema: %q", set.Rescue)
	}
}

func TestSalesBuilderRendersProfileAndHistory(t *testing.T) {
	t.Parallel()

	b, err := NewSalesBuilder(LoadPromptSet())
	if err != nil {
		t.Fatalf("NewSalesBuilder() error = %v", err)
	}

	history := []*schema.Message{
		schema.UserMessage("do you deliver to Lekki?"),
		schema.AssistantMessage("Yes we do.", nil),
		schema.UserMessage("how much {is} it"),
	}
	msgs, err := b.Build(context.Background(), SalesInput{
		Profile: contractx.StoreProfile{
			StoreID:         "store-1",
			Name:            "Ada Kicks",
			Category:        "Fashion",
			TonePreset:      "Playful",
			BrevityMode:     "Short",
			PersuasionLevel: 2,
		},
		Knowledge: []contractx.RetrievalResult{{SourceType: "FAQ", SourceID: "faq-1", Content: "We deliver in Lagos within 48h."}},
		Strategy:  "STRATEGY: Use SOCIAL_PROOF. Focus on benefits and trust. No pressure.",
		History:   history,
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(msgs) != 4 {
		t.Fatalf("expected system + 3 history messages, got %d", len(msgs))
	}
	sys := msgs[0]
	if sys.Role != schema.System {
		t.Fatalf("msgs[0].Role = %s, want system", sys.Role)
	}
	for _, want := range []string{
		"Lead Sales Rep for Ada Kicks (Fashion)",
		"TONE: Playful.",
		"Keep replies under 3 sentences.",
		"PERSUASION: Level 2.",
		"[FAQ]: We deliver in Lagos within 48h.",
		"STRATEGY: Use SOCIAL_PROOF.",
	} {
		if !strings.Contains(sys.Content, want) {
			t.Fatalf("system prompt missing %q:\n%s", want, sys.Content)
		}
	}
	if msgs[3].Content != "how much {is} it" {
		t.Fatalf("history must pass through untouched, got %q", msgs[3].Content)
	}
}

func TestSalesBuilderDefaults(t *testing.T) {
	t.Parallel()

	b, err := NewSalesBuilder(LoadPromptSet())
	if err != nil {
		t.Fatalf("NewSalesBuilder() error = %v", err)
	}
	msgs, err := b.Build(context.Background(), SalesInput{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	sys := msgs[0].Content
	for _, want := range []string{"Lead Sales Rep for the store.", "TONE: Friendly.", "Be detailed.", noKnowledge} {
		if !strings.Contains(sys, want) {
			t.Fatalf("system prompt missing %q:\n%s", want, sys)
		}
	}
}

func TestNewSalesBuilderRequiresPrompt(t *testing.T) {
	t.Parallel()

	if _, err := NewSalesBuilder(PromptSet{}); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("NewSalesBuilder() error = %v, want ErrPromptMissing", err)
	}
}
