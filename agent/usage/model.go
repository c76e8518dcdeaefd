package usage

import (
	"time"

	"github.com/uptrace/bun"
)

type Status string

const (
	StatusTrialActive       Status = "TRIAL_ACTIVE"
	StatusTrialExpiredGrace Status = "TRIAL_EXPIRED_GRACE"
	StatusUpgradedActive    Status = "UPGRADED_ACTIVE"
	StatusSoftClosed        Status = "SOFT_CLOSED"
	StatusBlocked           Status = "BLOCKED"
)

// Subscription is the per-store usage record. Counters are reset monthly by an
// external job and only ever incremented here.
type Subscription struct {
	bun.BaseModel `bun:"table:usage_subscriptions,alias:us"`

	ID                string     `bun:"id,pk"`
	StoreID           string     `bun:"store_id,notnull,unique"`
	Status            Status     `bun:"status,notnull"`
	PlanKey           string     `bun:"plan_key,notnull"`
	MonthMessagesUsed int        `bun:"month_messages_used,notnull,default:0"`
	MonthTokensUsed   int64      `bun:"month_tokens_used,notnull,default:0"`
	TrialExpiresAt    *time.Time `bun:"trial_expires_at"`
	GraceEndsAt       *time.Time `bun:"grace_ends_at"`
	CreatedAt         time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt         time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

type AddonPurchase struct {
	bun.BaseModel `bun:"table:addon_purchases,alias:ap"`

	ID             string    `bun:"id,pk"`
	SubscriptionID string    `bun:"subscription_id,notnull"`
	StoreID        string    `bun:"store_id,notnull"`
	PackKey        string    `bun:"pack_key,notnull"`
	MessagesAdded  int       `bun:"messages_added,notnull"`
	ImagesAdded    int       `bun:"images_added,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

// Event is an append-only ledger row. It is never updated.
type Event struct {
	bun.BaseModel `bun:"table:usage_events,alias:ue"`

	ID           string    `bun:"id,pk"`
	StoreID      string    `bun:"store_id,notnull"`
	RequestID    string    `bun:"request_id"`
	Channel      string    `bun:"channel,notnull"`
	Model        string    `bun:"model,notnull"`
	InputTokens  int       `bun:"input_tokens,notnull"`
	OutputTokens int       `bun:"output_tokens,notnull"`
	ModelCalls   int       `bun:"model_calls,notnull"`
	CostKobo     int64     `bun:"cost_kobo,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

type DailyAggregate struct {
	bun.BaseModel `bun:"table:daily_usage_aggregates,alias:dua"`

	StoreID      string    `bun:"store_id,pk"`
	Date         time.Time `bun:"date,pk,type:date"`
	MessageCount int       `bun:"message_count,notnull"`
	InputTokens  int64     `bun:"input_tokens,notnull"`
	OutputTokens int64     `bun:"output_tokens,notnull"`
	CostKobo     int64     `bun:"cost_kobo,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

// TrialAbuseSignal is keyed by the composite (ip_address, device_fingerprint).
type TrialAbuseSignal struct {
	bun.BaseModel `bun:"table:trial_abuse_signals,alias:tas"`

	IPAddress         string    `bun:"ip_address,pk"`
	DeviceFingerprint string    `bun:"device_fingerprint,pk"`
	StoreID           string    `bun:"store_id,notnull"`
	Hits              int       `bun:"hits,notnull"`
	FirstSeenAt       time.Time `bun:"first_seen_at,notnull"`
	LastSeenAt        time.Time `bun:"last_seen_at,notnull"`
}

// Usage is the read-only snapshot returned with every limit decision.
type Usage struct {
	PlanKey      string `json:"planKey"`
	Status       Status `json:"status"`
	MessagesUsed int    `json:"messagesUsed"`
	MessageLimit int    `json:"messageLimit"`
	TokensUsed   int64  `json:"tokensUsed"`
}

type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Usage   Usage  `json:"usage"`
}

// Record describes one processed turn for LogUsage.
type Record struct {
	StoreID      string
	Model        string
	InputTokens  int
	OutputTokens int
	Channel      string
	RequestID    string
	Calls        int
}

type AddonRequest struct {
	StoreID           string `json:"storeId"`
	PackKey           string `json:"packKey"`
	MessagesAdded     int    `json:"messagesAdded"`
	ImagesAdded       int    `json:"imagesAdded"`
	IPAddress         string `json:"ipAddress,omitempty"`
	DeviceFingerprint string `json:"deviceFingerprint,omitempty"`
}
