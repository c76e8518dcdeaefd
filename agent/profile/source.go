package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

// storeProfileRow is the read shape of a store joined with its optional AI
// profile.
type storeProfileRow struct {
	bun.BaseModel `bun:"table:stores,alias:s"`

	ID              string         `bun:"id,pk"`
	Name            string         `bun:"name"`
	Category        sql.NullString `bun:"category"`
	TonePreset      sql.NullString `bun:"tone_preset,scanonly"`
	BrevityMode     sql.NullString `bun:"brevity_mode,scanonly"`
	PersuasionLevel sql.NullInt64  `bun:"persuasion_level,scanonly"`
}

// BunSource loads store profiles from Postgres.
type BunSource struct {
	db bun.IDB
}

func NewBunSource(db bun.IDB) *BunSource {
	return &BunSource{db: db}
}

func (s *BunSource) LoadProfile(ctx context.Context, storeID string) (contractx.StoreProfile, error) {
	row := new(storeProfileRow)
	if err := profileQuery(s.db, row, storeID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contractx.StoreProfile{}, fmt.Errorf("%w: store id=%s", contractx.ErrNotFound, storeID)
		}
		return contractx.StoreProfile{}, fmt.Errorf("select store profile: %w", err)
	}
	return row.toProfile(), nil
}

func profileQuery(db bun.IDB, row *storeProfileRow, storeID string) *bun.SelectQuery {
	return db.NewSelect().
		Model(row).
		Column("s.id", "s.name", "s.category").
		ColumnExpr("map.tone_preset, map.brevity_mode, map.persuasion_level").
		Join("LEFT JOIN merchant_ai_profiles AS map ON map.store_id = s.id").
		Where("s.id = ?", storeID).
		Limit(1)
}

func (r *storeProfileRow) toProfile() contractx.StoreProfile {
	p := contractx.DefaultStoreProfile(r.ID)
	p.Name = r.Name
	p.Category = r.Category.String
	p.BrevityMode = r.BrevityMode.String
	if tone := strings.TrimSpace(r.TonePreset.String); tone != "" {
		p.TonePreset = tone
	}
	if r.PersuasionLevel.Valid {
		p.PersuasionLevel = int(r.PersuasionLevel.Int64)
	}
	return p
}

// CachedSource serves profiles from cache and falls back to the backing
// source. Cache failures never fail a lookup.
type CachedSource struct {
	source contractx.ProfileSource
	cache  Cache
}

func NewCachedSource(source contractx.ProfileSource, cache Cache) *CachedSource {
	return &CachedSource{source: source, cache: cache}
}

func (c *CachedSource) LoadProfile(ctx context.Context, storeID string) (contractx.StoreProfile, error) {
	if c.cache != nil {
		p, err := c.cache.Get(ctx, storeID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrProfileNotCached) {
			log.Warn().Err(err).Str("store_id", storeID).Msg("profile cache read failed")
		}
	}

	p, err := c.source.LoadProfile(ctx, storeID)
	if err != nil {
		return contractx.StoreProfile{}, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, p); err != nil {
			log.Warn().Err(err).Str("store_id", storeID).Msg("profile cache write failed")
		}
	}
	return p, nil
}
