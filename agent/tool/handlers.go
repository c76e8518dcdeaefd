package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

const maxOrderQuantity = 100

type inventoryArgs struct {
	ProductID string `json:"productId"`
}

type deliveryArgs struct {
	Location string `json:"location"`
}

type promotionsArgs struct{}

type createOrderArgs struct {
	Items   []contractx.OrderItem `json:"items"`
	Address string                `json:"address,omitempty"`
}

// decodeArgs decodes a single JSON object into dst, rejecting unknown fields
// and trailing data. Empty input decodes as {}.
func decodeArgs(arguments string, dst any) error {
	raw := strings.TrimSpace(arguments)
	if raw == "" {
		raw = "{}"
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid arguments: %v", contractx.ErrSchemaViolation, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid arguments: trailing data", contractx.ErrSchemaViolation)
	}
	return nil
}

func failure(tool string, err error) (contractx.ToolResult, error) {
	return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
}

func executeInventory(ctx context.Context, catalog contractx.Catalog, scope Scope, tool, arguments string) (contractx.ToolResult, error) {
	var args inventoryArgs
	if err := decodeArgs(arguments, &args); err != nil {
		return failure(tool, err)
	}
	productID := strings.TrimSpace(args.ProductID)
	if productID == "" {
		return failure(tool, errors.New("productId is required"))
	}

	status, err := catalog.GetInventory(ctx, scope.StoreID, productID)
	if err != nil {
		return failure(tool, fmt.Errorf("inventory lookup failed: %w", err))
	}
	return contractx.ToolResult{Tool: tool, Result: status}, nil
}

func executeDeliveryQuote(ctx context.Context, quoter contractx.DeliveryQuoter, scope Scope, tool, arguments string) (contractx.ToolResult, error) {
	var args deliveryArgs
	if err := decodeArgs(arguments, &args); err != nil {
		return failure(tool, err)
	}
	location := strings.TrimSpace(args.Location)
	if location == "" {
		return failure(tool, errors.New("location is required"))
	}

	quote, err := quoter.Quote(ctx, scope.StoreID, location)
	if err != nil {
		return failure(tool, fmt.Errorf("delivery quote failed: %w", err))
	}
	return contractx.ToolResult{Tool: tool, Result: quote}, nil
}

func executePromotions(ctx context.Context, promos contractx.Promotions, scope Scope, tool, arguments string) (contractx.ToolResult, error) {
	var args promotionsArgs
	if err := decodeArgs(arguments, &args); err != nil {
		return failure(tool, err)
	}

	active, err := promos.Active(ctx, scope.StoreID)
	if err != nil {
		return failure(tool, fmt.Errorf("promotions lookup failed: %w", err))
	}
	if active == nil {
		active = []contractx.Promotion{}
	}
	return contractx.ToolResult{Tool: tool, Result: active}, nil
}

func executeCreateOrder(ctx context.Context, orders contractx.Orders, scope Scope, tool, arguments string) (contractx.ToolResult, error) {
	var args createOrderArgs
	if err := decodeArgs(arguments, &args); err != nil {
		return failure(tool, err)
	}
	if len(args.Items) == 0 {
		return failure(tool, errors.New("items must not be empty"))
	}
	for i, item := range args.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return failure(tool, fmt.Errorf("items[%d].productId is required", i))
		}
		if item.Quantity <= 0 || item.Quantity > maxOrderQuantity {
			return failure(tool, fmt.Errorf("items[%d].quantity must be between 1 and %d", i, maxOrderQuantity))
		}
	}

	confirmation, err := orders.Create(ctx, scope.StoreID, contractx.OrderRequest{
		Items:          args.Items,
		Address:        strings.TrimSpace(args.Address),
		ConversationID: scope.ConversationID,
	})
	if err != nil {
		return failure(tool, fmt.Errorf("order creation failed: %w", err))
	}
	return contractx.ToolResult{Tool: tool, Result: confirmation}, nil
}
