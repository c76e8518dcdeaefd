package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

const (
	ToolGetInventory     = "get_inventory"
	ToolGetDeliveryQuote = "get_delivery_quote"
	ToolGetPromotions    = "get_promotions"
	ToolCreateOrder      = "create_order"
)

// Scope identifies the store and conversation a tool call runs for.
type Scope struct {
	StoreID        string
	ConversationID string
}

// Executor runs one tool call. Arguments is the raw JSON object chosen by the
// model.
type Executor func(ctx context.Context, scope Scope, tool string, arguments string) (contractx.ToolResult, error)

// Collaborators are the store services reachable through tools. A nil
// collaborator makes its tool report itself unavailable.
type Collaborators struct {
	Catalog    contractx.Catalog
	Delivery   contractx.DeliveryQuoter
	Promotions contractx.Promotions
	Orders     contractx.Orders
}

func Build(c Collaborators) ([]*schema.ToolInfo, Executor) {
	return Infos(), NewExecutor(c)
}

func NewExecutor(c Collaborators) Executor {
	fallback := DefaultExecutor()
	return func(ctx context.Context, scope Scope, tool string, arguments string) (contractx.ToolResult, error) {
		switch {
		case tool == ToolGetInventory && c.Catalog != nil:
			return executeInventory(ctx, c.Catalog, scope, tool, arguments)
		case tool == ToolGetDeliveryQuote && c.Delivery != nil:
			return executeDeliveryQuote(ctx, c.Delivery, scope, tool, arguments)
		case tool == ToolGetPromotions && c.Promotions != nil:
			return executePromotions(ctx, c.Promotions, scope, tool, arguments)
		case tool == ToolCreateOrder && c.Orders != nil:
			return executeCreateOrder(ctx, c.Orders, scope, tool, arguments)
		default:
			return fallback(ctx, scope, tool, arguments)
		}
	}
}

func DefaultExecutor() Executor {
	return func(_ context.Context, scope Scope, tool string, _ string) (contractx.ToolResult, error) {
		return contractx.ToolResult{
			Tool:  tool,
			Error: fmt.Sprintf("tool=%s is unavailable for store=%s", tool, scope.StoreID),
		}, nil
	}
}

func Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolGetInventory,
			Desc: "Check real-time stock for a product.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"productId": {Type: schema.String, Desc: "Product identifier", Required: true},
			}),
		},
		{
			Name: ToolGetDeliveryQuote,
			Desc: "Get the delivery cost and estimated days to a location.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"location": {Type: schema.String, Desc: "City, area or full address", Required: true},
			}),
		},
		{
			Name:        ToolGetPromotions,
			Desc:        "List the store's active promotions and discount codes.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		{
			Name: ToolCreateOrder,
			Desc: "Create an order once the buyer has confirmed items and quantities.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"items": {
					Type:     schema.Array,
					Desc:     "Items to order",
					Required: true,
					ElemInfo: &schema.ParameterInfo{
						Type: schema.Object,
						SubParams: map[string]*schema.ParameterInfo{
							"productId": {Type: schema.String, Required: true},
							"quantity":  {Type: schema.Integer, Required: true},
						},
					},
				},
				"address": {Type: schema.String, Desc: "Delivery address"},
			}),
		},
	}
}
