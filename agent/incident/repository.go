package incident

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

type BunRepository struct {
	db bun.IDB
}

func NewBunRepository(db bun.IDB) *BunRepository {
	return &BunRepository{db: db}
}

// Upsert inserts inc or re-opens the row with the same fingerprint. inc is
// overwritten with the stored row.
func (r *BunRepository) Upsert(ctx context.Context, inc *Incident) error {
	if _, err := upsertIncident(r.db, inc).Exec(ctx); err != nil {
		return fmt.Errorf("upsert incident: %w", err)
	}
	return nil
}

func (r *BunRepository) Load(ctx context.Context, id string) (*Incident, error) {
	inc := new(Incident)
	if err := selectIncident(r.db, inc, id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: incident id=%s", contractx.ErrNotFound, id)
		}
		return nil, fmt.Errorf("select incident: %w", err)
	}
	return inc, nil
}

func (r *BunRepository) Resolve(ctx context.Context, id string, status Status, c Classification, at time.Time) (bool, error) {
	res, err := resolveIncident(r.db, id, status, c, at).Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("resolve incident: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func upsertIncident(db bun.IDB, inc *Incident) *bun.InsertQuery {
	return db.NewInsert().
		Model(inc).
		On("CONFLICT (fingerprint) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("occurrences = ri.occurrences + 1").
		Set("severity = EXCLUDED.severity").
		Set("category = NULL").
		Set("diagnosis = NULL").
		Set("remediation = NULL").
		Set("classified_at = NULL").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*")
}

func selectIncident(db bun.IDB, inc *Incident, id string) *bun.SelectQuery {
	return db.NewSelect().
		Model(inc).
		Where("ri.id = ?", id).
		Limit(1)
}

// resolveIncident only moves rows that are still RUNNING, so a late
// classification never overwrites a re-opened or already resolved incident.
func resolveIncident(db bun.IDB, id string, status Status, c Classification, at time.Time) *bun.UpdateQuery {
	return db.NewUpdate().
		Model((*Incident)(nil)).
		Set("status = ?", status).
		Set("category = ?", c.Category).
		Set("diagnosis = ?", c.Diagnosis).
		Set("remediation = ?", c.Remediation).
		Set("classified_at = ?", at).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Where("status = ?", StatusRunning)
}
