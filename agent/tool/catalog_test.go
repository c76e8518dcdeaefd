package tool

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

type stubCatalog struct {
	gotProduct string
	err        error
}

func (s *stubCatalog) GetInventory(_ context.Context, _ string, productID string) (contractx.InventoryStatus, error) {
	s.gotProduct = productID
	if s.err != nil {
		return contractx.InventoryStatus{}, s.err
	}
	return contractx.InventoryStatus{ProductID: productID, Name: "Air Max", Status: contractx.InStock, Available: 4}, nil
}

type stubQuoter struct{}

func (stubQuoter) Quote(_ context.Context, _ string, location string) (contractx.DeliveryQuote, error) {
	return contractx.DeliveryQuote{Location: location, CostKobo: 250000, EstimatedDays: 2, Carrier: "GIG"}, nil
}

type stubOrders struct {
	got contractx.OrderRequest
}

func (s *stubOrders) Create(_ context.Context, _ string, req contractx.OrderRequest) (contractx.OrderConfirmation, error) {
	s.got = req
	return contractx.OrderConfirmation{OrderID: "ord-1", Status: "PENDING", TotalKobo: 1500000}, nil
}

func TestBuildDeclaresFixedTools(t *testing.T) {
	t.Parallel()

	infos, executor := Build(Collaborators{})
	want := []string{ToolGetInventory, ToolGetDeliveryQuote, ToolGetPromotions, ToolCreateOrder}
	if len(infos) != len(want) {
		t.Fatalf("expected %d tool infos, got %d", len(want), len(infos))
	}
	for i, name := range want {
		if infos[i].Name != name {
			t.Fatalf("tool[%d] = %s, want %s", i, infos[i].Name, name)
		}
	}
	if executor == nil {
		t.Fatal("executor must not be nil")
	}
}

func TestDefaultExecutorUnavailableMessage(t *testing.T) {
	t.Parallel()

	executor := NewExecutor(Collaborators{})
	out, err := executor(context.Background(), Scope{StoreID: "store-1"}, ToolGetPromotions, "{}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Tool != ToolGetPromotions {
		t.Fatalf("unexpected tool: %s", out.Tool)
	}
	if out.Error == "" {
		t.Fatal("expected non-empty error message")
	}
}

func TestExecutorInventory(t *testing.T) {
	t.Parallel()

	catalog := &stubCatalog{}
	executor := NewExecutor(Collaborators{Catalog: catalog})
	out, err := executor(context.Background(), Scope{StoreID: "store-1"}, ToolGetInventory, `{"productId":" sku-9 "}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Error != "" {
		t.Fatalf("unexpected tool error: %s", out.Error)
	}
	status, ok := out.Result.(contractx.InventoryStatus)
	if !ok {
		t.Fatalf("unexpected result type: %T", out.Result)
	}
	if status.ProductID != "sku-9" || catalog.gotProduct != "sku-9" {
		t.Fatalf("unexpected product: %#v", status)
	}
}

func TestExecutorRejectsUnknownArguments(t *testing.T) {
	t.Parallel()

	executor := NewExecutor(Collaborators{Catalog: &stubCatalog{}})
	out, err := executor(context.Background(), Scope{StoreID: "s"}, ToolGetInventory, `{"productId":"a","color":"red"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.Error, "unknown field") {
		t.Fatalf("expected unknown field error, got %q", out.Error)
	}
}

func TestExecutorCreateOrderValidation(t *testing.T) {
	t.Parallel()

	orders := &stubOrders{}
	executor := NewExecutor(Collaborators{Orders: orders})

	cases := map[string]string{
		"empty items":   `{"items":[]}`,
		"zero quantity": `{"items":[{"productId":"a","quantity":0}]}`,
		"missing id":    `{"items":[{"quantity":1}]}`,
		"not an object": `[1,2]`,
		"trailing data": `{"items":[{"productId":"a","quantity":1}]} {}`,
	}
	for name, args := range cases {
		out, err := executor(context.Background(), Scope{StoreID: "s"}, ToolCreateOrder, args)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if out.Error == "" {
			t.Fatalf("%s: expected validation error", name)
		}
	}

	out, err := executor(context.Background(), Scope{StoreID: "s", ConversationID: "conv-1"}, ToolCreateOrder,
		`{"items":[{"productId":"a","quantity":2}],"address":"12 Admiralty Way"}`)
	if err != nil || out.Error != "" {
		t.Fatalf("unexpected failure: err=%v toolErr=%s", err, out.Error)
	}
	if orders.got.ConversationID != "conv-1" || orders.got.Items[0].Quantity != 2 {
		t.Fatalf("unexpected order request: %#v", orders.got)
	}
}

func TestRunCallsPreservesOrderAndIDs(t *testing.T) {
	t.Parallel()

	executor := NewExecutor(Collaborators{
		Catalog:  &stubCatalog{err: errors.New("catalog offline")},
		Delivery: stubQuoter{},
	})
	calls := []schema.ToolCall{
		{ID: "call_b", Function: schema.FunctionCall{Name: ToolGetDeliveryQuote, Arguments: `{"location":"Lekki"}`}},
		{ID: "call_a", Function: schema.FunctionCall{Name: ToolGetInventory, Arguments: `{"productId":"x"}`}},
		{ID: "call_c", Function: schema.FunctionCall{Name: "teleport", Arguments: `{}`}},
	}

	msgs, results := RunCalls(context.Background(), executor, Scope{StoreID: "s"}, calls)
	if len(msgs) != 3 || len(results) != 3 {
		t.Fatalf("expected 3 messages and results, got %d/%d", len(msgs), len(results))
	}
	for i, call := range calls {
		if msgs[i].Role != schema.Tool {
			t.Fatalf("msgs[%d].Role = %s, want tool", i, msgs[i].Role)
		}
		if msgs[i].ToolCallID != call.ID {
			t.Fatalf("msgs[%d].ToolCallID = %s, want %s", i, msgs[i].ToolCallID, call.ID)
		}
	}

	var quote contractx.DeliveryQuote
	if err := json.Unmarshal([]byte(msgs[0].Content), &quote); err != nil || quote.Location != "Lekki" {
		t.Fatalf("unexpected quote payload %q: %v", msgs[0].Content, err)
	}
	for _, i := range []int{1, 2} {
		var payload map[string]string
		if err := json.Unmarshal([]byte(msgs[i].Content), &payload); err != nil {
			t.Fatalf("decode payload %d: %v", i, err)
		}
		if payload["error"] == "" {
			t.Fatalf("msgs[%d] expected error payload, got %q", i, msgs[i].Content)
		}
	}
}

func TestRunCallsRecoversPanics(t *testing.T) {
	t.Parallel()

	panicky := func(context.Context, Scope, string, string) (contractx.ToolResult, error) {
		panic("boom")
	}
	msgs, results := RunCalls(context.Background(), panicky, Scope{}, []schema.ToolCall{
		{ID: "call_1", Function: schema.FunctionCall{Name: ToolGetPromotions}},
	})
	if len(msgs) != 1 || msgs[0].ToolCallID != "call_1" {
		t.Fatalf("unexpected messages: %#v", msgs)
	}
	if !strings.Contains(results[0].Error, "panicked") {
		t.Fatalf("unexpected result: %#v", results[0])
	}
}
