package audit

import (
	"context"

	"github.com/uptrace/bun"
)

type BunRepository struct {
	db bun.IDB
}

func NewBunRepository(db bun.IDB) *BunRepository {
	return &BunRepository{db: db}
}

func (r *BunRepository) InsertTrace(ctx context.Context, trace *AiTrace) error {
	_, err := r.db.NewInsert().Model(trace).Exec(ctx)
	return err
}

func (r *BunRepository) InsertObjection(ctx context.Context, ev *ObjectionEvent) error {
	_, err := r.db.NewInsert().Model(ev).Exec(ctx)
	return err
}
