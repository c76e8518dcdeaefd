package escalation

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
)

type BunRepository struct {
	db *bun.DB
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

func (r *BunRepository) CreateHandoff(ctx context.Context, ticket *Ticket, event *HandoffEvent) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return insertHandoff(ctx, tx, ticket, event)
	})
}

func insertHandoff(ctx context.Context, db bun.IDB, ticket *Ticket, event *HandoffEvent) error {
	if _, err := db.NewInsert().Model(ticket).Exec(ctx); err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	if _, err := db.NewInsert().Model(event).Exec(ctx); err != nil {
		return fmt.Errorf("insert handoff event: %w", err)
	}
	return nil
}
