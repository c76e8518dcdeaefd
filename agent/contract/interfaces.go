package contract

import "context"

// Catalog answers stock questions for the get_inventory tool.
type Catalog interface {
	GetInventory(ctx context.Context, storeID string, productID string) (InventoryStatus, error)
}

type DeliveryQuoter interface {
	Quote(ctx context.Context, storeID string, location string) (DeliveryQuote, error)
}

type Promotions interface {
	Active(ctx context.Context, storeID string) ([]Promotion, error)
}

type Orders interface {
	Create(ctx context.Context, storeID string, req OrderRequest) (OrderConfirmation, error)
}

// TicketSink receives human-handoff tickets. Implementations live outside the pipeline.
type TicketSink interface {
	CreateTicket(ctx context.Context, ticket Ticket) error
}

type ProfileSource interface {
	LoadProfile(ctx context.Context, storeID string) (StoreProfile, error)
}
