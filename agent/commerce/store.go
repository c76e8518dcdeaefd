package commerce

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

const (
	orderStatusPending = "PENDING_PAYMENT"
	orderSourceAgent   = "AI_AGENT"
)

var ErrInsufficientStock = errors.New("insufficient stock")

var (
	_ contractx.Catalog        = (*Store)(nil)
	_ contractx.DeliveryQuoter = (*Store)(nil)
	_ contractx.Promotions     = (*Store)(nil)
	_ contractx.Orders         = (*Store)(nil)
	_ contractx.TicketSink     = (*Store)(nil)
)

// Store serves the storefront lookups the agent's tools need from the
// merchant's own tables.
type Store struct {
	db  *bun.DB
	now func() time.Time
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) GetInventory(ctx context.Context, storeID, productID string) (contractx.InventoryStatus, error) {
	p := new(Product)
	if err := productQuery(s.db, p, storeID, productID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contractx.InventoryStatus{}, fmt.Errorf("%w: product %s", contractx.ErrNotFound, productID)
		}
		return contractx.InventoryStatus{}, fmt.Errorf("select product: %w", err)
	}
	return inventoryStatus(p), nil
}

func inventoryStatus(p *Product) contractx.InventoryStatus {
	status := contractx.InStock
	available := p.StockQuantity
	if !p.Active || available <= 0 {
		status = contractx.OutOfStock
		available = 0
	}
	return contractx.InventoryStatus{
		ProductID: p.ID,
		Name:      p.Name,
		Status:    status,
		Available: available,
	}
}

// Quote matches the location against zone names and falls back to the
// store's default zone.
func (s *Store) Quote(ctx context.Context, storeID, location string) (contractx.DeliveryQuote, error) {
	z := new(DeliveryZone)
	if err := zoneQuery(s.db, z, storeID, location).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contractx.DeliveryQuote{}, fmt.Errorf("%w: no delivery zone covers %q", contractx.ErrNotFound, location)
		}
		return contractx.DeliveryQuote{}, fmt.Errorf("select delivery zone: %w", err)
	}
	return contractx.DeliveryQuote{
		Location:      location,
		CostKobo:      z.CostKobo,
		EstimatedDays: z.EstimatedDays,
		Carrier:       z.Carrier,
	}, nil
}

func (s *Store) Active(ctx context.Context, storeID string) ([]contractx.Promotion, error) {
	var rules []DiscountRule
	if err := activeRulesQuery(s.db, &rules, storeID, s.now().UTC()).Scan(ctx); err != nil {
		return nil, fmt.Errorf("select discount rules: %w", err)
	}
	promos := make([]contractx.Promotion, 0, len(rules))
	for _, r := range rules {
		promos = append(promos, contractx.Promotion{
			Code:        r.Code,
			Description: r.Description,
			Type:        r.Type,
			Value:       r.Value,
		})
	}
	return promos, nil
}

// Create places an order and reserves stock in one transaction. Any line
// without enough stock aborts the whole order.
func (s *Store) Create(ctx context.Context, storeID string, req contractx.OrderRequest) (contractx.OrderConfirmation, error) {
	if len(req.Items) == 0 {
		return contractx.OrderConfirmation{}, fmt.Errorf("%w: order has no items", contractx.ErrValidation)
	}

	order := &Order{
		ID:             uuid.NewString(),
		StoreID:        storeID,
		ConversationID: req.ConversationID,
		Status:         orderStatusPending,
		Address:        strings.TrimSpace(req.Address),
		Source:         orderSourceAgent,
		CreatedAt:      s.now().UTC(),
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		lines := make([]OrderLine, 0, len(req.Items))
		for _, item := range req.Items {
			p := new(Product)
			if err := productQuery(tx, p, storeID, item.ProductID).For("UPDATE").Scan(ctx); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("%w: product %s", contractx.ErrNotFound, item.ProductID)
				}
				return err
			}
			if !p.Active || p.StockQuantity < item.Quantity {
				return fmt.Errorf("%w: product %s", ErrInsufficientStock, item.ProductID)
			}
			if _, err := reserveStock(tx, p.ID, item.Quantity).Exec(ctx); err != nil {
				return err
			}
			order.TotalKobo += p.PriceKobo * int64(item.Quantity)
			lines = append(lines, OrderLine{
				ID:            uuid.NewString(),
				OrderID:       order.ID,
				ProductID:     p.ID,
				Quantity:      item.Quantity,
				UnitPriceKobo: p.PriceKobo,
			})
		}
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&lines).Exec(ctx)
		return err
	})
	if err != nil {
		return contractx.OrderConfirmation{}, fmt.Errorf("create order: %w", err)
	}

	return contractx.OrderConfirmation{
		OrderID:   order.ID,
		Status:    order.Status,
		TotalKobo: order.TotalKobo,
		Message:   "Order created. A payment link will follow.",
	}, nil
}

func (s *Store) CreateTicket(ctx context.Context, t contractx.Ticket) error {
	row := &SupportTicket{
		ID:             uuid.NewString(),
		StoreID:        t.StoreID,
		ConversationID: t.ConversationID,
		Type:           t.Type,
		Category:       t.Category,
		Priority:       t.Priority,
		Status:         t.Status,
		Subject:        t.Subject,
		Summary:        t.Summary,
		CreatedAt:      s.now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert support ticket: %w", err)
	}
	return nil
}

func productQuery(db bun.IDB, p *Product, storeID, productID string) *bun.SelectQuery {
	return db.NewSelect().
		Model(p).
		Where("p.store_id = ?", storeID).
		Where("p.id = ?", productID).
		Limit(1)
}

func reserveStock(db bun.IDB, productID string, qty int) *bun.UpdateQuery {
	return db.NewUpdate().
		Model((*Product)(nil)).
		Set("stock_quantity = stock_quantity - ?", qty).
		Where("id = ?", productID)
}

func zoneQuery(db bun.IDB, z *DeliveryZone, storeID, location string) *bun.SelectQuery {
	return db.NewSelect().
		Model(z).
		Where("dz.store_id = ?", storeID).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("? ILIKE '%' || dz.name || '%'", strings.TrimSpace(location)).
				WhereOr("dz.is_default")
		}).
		OrderExpr("dz.is_default ASC").
		Limit(1)
}

func activeRulesQuery(db bun.IDB, dst *[]DiscountRule, storeID string, now time.Time) *bun.SelectQuery {
	return db.NewSelect().
		Model(dst).
		Where("dr.store_id = ?", storeID).
		Where("dr.active").
		Where("dr.starts_at IS NULL OR dr.starts_at <= ?", now).
		Where("dr.ends_at IS NULL OR dr.ends_at > ?", now).
		Order("dr.code ASC")
}
