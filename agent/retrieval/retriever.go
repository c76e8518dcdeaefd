package retrieval

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

const (
	DefaultLimit  = 3
	maxKeywords   = 6
	minKeywordLen = 3
)

type KnowledgeFragment struct {
	bun.BaseModel `bun:"table:knowledge_fragments,alias:kf"`

	ID         string    `bun:"id,pk"`
	StoreID    string    `bun:"store_id,notnull"`
	SourceType string    `bun:"source_type,notnull"`
	SourceID   string    `bun:"source_id,notnull"`
	Content    string    `bun:"content,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "you": {}, "your": {}, "are": {}, "can": {},
	"what": {}, "how": {}, "does": {}, "have": {}, "with": {}, "this": {}, "that": {},
	"any": {}, "is": {}, "do": {}, "please": {}, "about": {}, "there": {}, "want": {},
}

type Retriever struct {
	db bun.IDB
}

func New(db bun.IDB) *Retriever {
	return &Retriever{db: db}
}

// RetrieveContext returns up to limit fragments of the store's knowledge whose
// content contains any significant keyword of query. Storage errors are logged
// and produce an empty result.
func (r *Retriever) RetrieveContext(ctx context.Context, storeID, query string, limit int) []contractx.RetrievalResult {
	if limit <= 0 {
		limit = DefaultLimit
	}
	keywords := Keywords(query)
	if strings.TrimSpace(storeID) == "" || len(keywords) == 0 || r == nil || r.db == nil {
		return []contractx.RetrievalResult{}
	}

	var rows []KnowledgeFragment
	if err := searchQuery(r.db, &rows, storeID, keywords, limit).Scan(ctx); err != nil {
		log.Warn().Err(err).Str("store_id", storeID).Str("stage", "retrieval").Msg("knowledge lookup failed")
		return []contractx.RetrievalResult{}
	}

	out := make([]contractx.RetrievalResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, contractx.RetrievalResult{
			SourceType: row.SourceType,
			SourceID:   row.SourceID,
			Content:    row.Content,
		})
	}
	return out
}

func searchQuery(db bun.IDB, dst *[]KnowledgeFragment, storeID string, keywords []string, limit int) *bun.SelectQuery {
	return db.NewSelect().
		Model(dst).
		Where("kf.store_id = ?", storeID).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for _, kw := range keywords {
				q = q.WhereOr("kf.content ILIKE ?", "%"+escapeLike(kw)+"%")
			}
			return q
		}).
		OrderExpr("kf.updated_at DESC").
		Limit(limit)
}

// Keywords lowercases query and keeps distinct words that carry meaning.
func Keywords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r < 0x80
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, maxKeywords)
	for _, f := range fields {
		if len([]rune(f)) < minKeywordLen {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
