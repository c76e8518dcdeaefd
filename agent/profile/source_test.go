package profile

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

type memoryCache struct {
	items  map[string]contractx.StoreProfile
	getErr error
	sets   int
}

func (m *memoryCache) Get(_ context.Context, storeID string) (contractx.StoreProfile, error) {
	if m.getErr != nil {
		return contractx.StoreProfile{}, m.getErr
	}
	p, ok := m.items[storeID]
	if !ok {
		return contractx.StoreProfile{}, ErrProfileNotCached
	}
	return p, nil
}

func (m *memoryCache) Set(_ context.Context, p contractx.StoreProfile) error {
	m.sets++
	m.items[p.StoreID] = p
	return nil
}

func (m *memoryCache) Delete(_ context.Context, storeID string) error {
	delete(m.items, storeID)
	return nil
}

type countingSource struct {
	calls int
	err   error
}

func (s *countingSource) LoadProfile(_ context.Context, storeID string) (contractx.StoreProfile, error) {
	s.calls++
	if s.err != nil {
		return contractx.StoreProfile{}, s.err
	}
	return contractx.StoreProfile{StoreID: storeID, Name: "Ada Shoes", PersuasionLevel: 2}, nil
}

func TestCachedSourceFillsCacheOnMiss(t *testing.T) {
	t.Parallel()

	cache := &memoryCache{items: map[string]contractx.StoreProfile{}}
	src := &countingSource{}
	cached := NewCachedSource(src, cache)

	for i := 0; i < 3; i++ {
		p, err := cached.LoadProfile(context.Background(), "store-1")
		if err != nil {
			t.Fatalf("LoadProfile() error = %v", err)
		}
		if p.Name != "Ada Shoes" {
			t.Fatalf("unexpected profile: %#v", p)
		}
	}
	if src.calls != 1 || cache.sets != 1 {
		t.Fatalf("expected one source load and one cache fill, got %d loads %d sets", src.calls, cache.sets)
	}
}

func TestCachedSourceSurvivesCacheOutage(t *testing.T) {
	t.Parallel()

	cache := &memoryCache{items: map[string]contractx.StoreProfile{}, getErr: errors.New("upstash down")}
	src := &countingSource{}
	p, err := NewCachedSource(src, cache).LoadProfile(context.Background(), "store-1")
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if p.StoreID != "store-1" || src.calls != 1 {
		t.Fatalf("expected source fallback, got %#v after %d calls", p, src.calls)
	}
}

func TestCachedSourcePropagatesSourceErrors(t *testing.T) {
	t.Parallel()

	src := &countingSource{err: contractx.ErrNotFound}
	_, err := NewCachedSource(src, nil).LoadProfile(context.Background(), "store-1")
	if !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreProfileRowDefaults(t *testing.T) {
	t.Parallel()

	row := &storeProfileRow{ID: "store-1", Name: "Ada Shoes"}
	p := row.toProfile()
	if p.TonePreset != "Friendly" || p.PersuasionLevel != 1 {
		t.Fatalf("unexpected defaults: %#v", p)
	}

	row.TonePreset = sql.NullString{String: "Professional", Valid: true}
	row.PersuasionLevel = sql.NullInt64{Int64: 0, Valid: true}
	p = row.toProfile()
	if p.TonePreset != "Professional" || p.PersuasionLevel != 0 {
		t.Fatalf("unexpected profile: %#v", p)
	}
}

func TestProfileQueryJoinsAIProfile(t *testing.T) {
	t.Parallel()

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN("postgres://u:p@localhost:5432/db?sslmode=disable")))
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })

	q := profileQuery(db, new(storeProfileRow), "store-1").String()
	if !strings.Contains(q, "LEFT JOIN merchant_ai_profiles AS map ON map.store_id = s.id") {
		t.Fatalf("missing profile join: %s", q)
	}
	if !strings.Contains(q, "s.id = 'store-1'") {
		t.Fatalf("missing store filter: %s", q)
	}
}
