package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

// BunRepository stores usage state in Postgres.
type BunRepository struct {
	db bun.IDB
}

func NewBunRepository(db bun.IDB) *BunRepository {
	return &BunRepository{db: db}
}

func (r *BunRepository) LoadSubscription(ctx context.Context, storeID string) (*Subscription, error) {
	sub := new(Subscription)
	if err := selectSubscription(r.db, sub, storeID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: subscription store_id=%s", contractx.ErrNotFound, storeID)
		}
		return nil, fmt.Errorf("select subscription: %w", err)
	}
	return sub, nil
}

func (r *BunRepository) ListAddons(ctx context.Context, subscriptionID string) ([]AddonPurchase, error) {
	var addons []AddonPurchase
	if err := selectAddons(r.db, &addons, subscriptionID).Scan(ctx); err != nil {
		return nil, fmt.Errorf("select addons: %w", err)
	}
	return addons, nil
}

func (r *BunRepository) InsertEvent(ctx context.Context, ev *Event) error {
	_, err := r.db.NewInsert().Model(ev).Exec(ctx)
	return err
}

func (r *BunRepository) IncrementCounters(ctx context.Context, storeID string, messages int, tokens int64) error {
	res, err := incrementCounters(r.db, storeID, messages, tokens, time.Now().UTC()).Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: subscription store_id=%s", contractx.ErrNotFound, storeID)
	}
	return nil
}

func (r *BunRepository) UpsertDaily(ctx context.Context, agg *DailyAggregate) error {
	_, err := upsertDaily(r.db, agg).Exec(ctx)
	return err
}

func (r *BunRepository) InsertAddon(ctx context.Context, addon *AddonPurchase) error {
	_, err := r.db.NewInsert().Model(addon).Exec(ctx)
	return err
}

func (r *BunRepository) UpsertTrialSignal(ctx context.Context, sig *TrialAbuseSignal) error {
	_, err := upsertTrialSignal(r.db, sig).Exec(ctx)
	return err
}

func selectSubscription(db bun.IDB, sub *Subscription, storeID string) *bun.SelectQuery {
	return db.NewSelect().
		Model(sub).
		Where("us.store_id = ?", storeID).
		Limit(1)
}

func selectAddons(db bun.IDB, dst *[]AddonPurchase, subscriptionID string) *bun.SelectQuery {
	return db.NewSelect().
		Model(dst).
		Where("ap.subscription_id = ?", subscriptionID).
		Order("ap.created_at ASC")
}

// incrementCounters is a single atomic UPDATE so concurrent turns never lose
// increments.
func incrementCounters(db bun.IDB, storeID string, messages int, tokens int64, now time.Time) *bun.UpdateQuery {
	return db.NewUpdate().
		Model((*Subscription)(nil)).
		Set("month_messages_used = month_messages_used + ?", messages).
		Set("month_tokens_used = month_tokens_used + ?", tokens).
		Set("updated_at = ?", now).
		Where("store_id = ?", storeID)
}

func upsertDaily(db bun.IDB, agg *DailyAggregate) *bun.InsertQuery {
	return db.NewInsert().
		Model(agg).
		On("CONFLICT (store_id, date) DO UPDATE").
		Set("message_count = dua.message_count + EXCLUDED.message_count").
		Set("input_tokens = dua.input_tokens + EXCLUDED.input_tokens").
		Set("output_tokens = dua.output_tokens + EXCLUDED.output_tokens").
		Set("cost_kobo = dua.cost_kobo + EXCLUDED.cost_kobo").
		Set("updated_at = EXCLUDED.updated_at")
}

func upsertTrialSignal(db bun.IDB, sig *TrialAbuseSignal) *bun.InsertQuery {
	return db.NewInsert().
		Model(sig).
		On("CONFLICT (ip_address, device_fingerprint) DO UPDATE").
		Set("hits = tas.hits + 1").
		Set("store_id = EXCLUDED.store_id").
		Set("last_seen_at = EXCLUDED.last_seen_at")
}
