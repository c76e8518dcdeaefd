package commerce

import (
	"time"

	"github.com/uptrace/bun"
)

type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID            string `bun:"id,pk"`
	StoreID       string `bun:"store_id,notnull"`
	Name          string `bun:"name,notnull"`
	PriceKobo     int64  `bun:"price_kobo,notnull"`
	StockQuantity int    `bun:"stock_quantity,notnull"`
	Active        bool   `bun:"active,notnull"`
}

type DeliveryZone struct {
	bun.BaseModel `bun:"table:delivery_zones,alias:dz"`

	ID            string `bun:"id,pk"`
	StoreID       string `bun:"store_id,notnull"`
	Name          string `bun:"name,notnull"`
	CostKobo      int64  `bun:"cost_kobo,notnull"`
	EstimatedDays int    `bun:"estimated_days,notnull"`
	Carrier       string `bun:"carrier"`
	IsDefault     bool   `bun:"is_default,notnull"`
}

type DiscountRule struct {
	bun.BaseModel `bun:"table:discount_rules,alias:dr"`

	ID          string     `bun:"id,pk"`
	StoreID     string     `bun:"store_id,notnull"`
	Code        string     `bun:"code,notnull"`
	Description string     `bun:"description"`
	Type        string     `bun:"type,notnull"`
	Value       float64    `bun:"value,notnull"`
	Active      bool       `bun:"active,notnull"`
	StartsAt    *time.Time `bun:"starts_at"`
	EndsAt      *time.Time `bun:"ends_at"`
}

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID             string    `bun:"id,pk"`
	StoreID        string    `bun:"store_id,notnull"`
	ConversationID string    `bun:"conversation_id"`
	Status         string    `bun:"status,notnull"`
	Address        string    `bun:"address"`
	TotalKobo      int64     `bun:"total_kobo,notnull"`
	Source         string    `bun:"source,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

type OrderLine struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID            string `bun:"id,pk"`
	OrderID       string `bun:"order_id,notnull"`
	ProductID     string `bun:"product_id,notnull"`
	Quantity      int    `bun:"quantity,notnull"`
	UnitPriceKobo int64  `bun:"unit_price_kobo,notnull"`
}

type SupportTicket struct {
	bun.BaseModel `bun:"table:support_tickets,alias:st"`

	ID             string    `bun:"id,pk"`
	StoreID        string    `bun:"store_id,notnull"`
	ConversationID string    `bun:"conversation_id"`
	Type           string    `bun:"type,notnull"`
	Category       string    `bun:"category,notnull"`
	Priority       string    `bun:"priority,notnull"`
	Status         string    `bun:"status,notnull"`
	Subject        string    `bun:"subject,notnull"`
	Summary        string    `bun:"summary"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}
