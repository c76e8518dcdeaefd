package usage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
)

const (
	PlanFree    = "FREE"
	PlanStarter = "STARTER"
	PlanGrowth  = "GROWTH"
	PlanPro     = "PRO"

	// Cost rate in kobo: 5 kobo per 100 tokens, floored.
	costRateNumerator   = 5
	costRateDenominator = 100
)

const (
	ReasonSoftClosed     = "Store chat has been paused by the merchant."
	ReasonBlocked        = "Store is blocked from using the AI agent."
	ReasonTrialExpired   = "Trial has expired. Upgrade to keep the agent running."
	ReasonLimitReached   = "Monthly message limit reached."
	ReasonNoSubscription = "Store has no AI subscription."
)

var DefaultPlans = map[string]int{
	PlanFree:    20,
	PlanStarter: 500,
	PlanGrowth:  2000,
	PlanPro:     10000,
}

// Repository is the persistence contract for usage state.
type Repository interface {
	LoadSubscription(ctx context.Context, storeID string) (*Subscription, error)
	ListAddons(ctx context.Context, subscriptionID string) ([]AddonPurchase, error)
	InsertEvent(ctx context.Context, ev *Event) error
	IncrementCounters(ctx context.Context, storeID string, messages int, tokens int64) error
	UpsertDaily(ctx context.Context, agg *DailyAggregate) error
	InsertAddon(ctx context.Context, addon *AddonPurchase) error
	UpsertTrialSignal(ctx context.Context, sig *TrialAbuseSignal) error
}

type Option func(*Limiter)

func WithPlans(plans map[string]int) Option {
	return func(l *Limiter) {
		if len(plans) > 0 {
			l.plans = plans
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// Limiter gates every turn on the store's monthly allowance and records usage
// after successful model calls.
type Limiter struct {
	repo  Repository
	plans map[string]int
	now   func() time.Time
}

func NewLimiter(repo Repository, opts ...Option) (*Limiter, error) {
	if repo == nil {
		return nil, errors.New("usage repository is required")
	}
	l := &Limiter{
		repo:  repo,
		plans: DefaultPlans,
		now:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}

func (l *Limiter) CheckLimits(ctx context.Context, storeID string) (Decision, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return Decision{}, fmt.Errorf("%w: store id is empty", contractx.ErrValidation)
	}

	sub, err := l.repo.LoadSubscription(ctx, storeID)
	if errors.Is(err, contractx.ErrNotFound) {
		return Decision{Allowed: false, Reason: ReasonNoSubscription}, nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("load subscription: %w", err)
	}

	addons, err := l.repo.ListAddons(ctx, sub.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("list addons: %w", err)
	}

	return l.decide(sub, addons), nil
}

func (l *Limiter) decide(sub *Subscription, addons []AddonPurchase) Decision {
	usage := Usage{
		PlanKey:      sub.PlanKey,
		Status:       sub.Status,
		MessagesUsed: sub.MonthMessagesUsed,
		MessageLimit: l.totalLimit(sub.PlanKey, addons),
		TokensUsed:   sub.MonthTokensUsed,
	}

	switch sub.Status {
	case StatusSoftClosed:
		return Decision{Allowed: false, Reason: ReasonSoftClosed, Usage: usage}
	case StatusBlocked:
		return Decision{Allowed: false, Reason: ReasonBlocked, Usage: usage}
	case StatusTrialExpiredGrace:
		return Decision{Allowed: false, Reason: ReasonTrialExpired, Usage: usage}
	}

	if sub.PlanKey == PlanFree && sub.TrialExpiresAt != nil && !l.now().Before(*sub.TrialExpiresAt) {
		return Decision{Allowed: false, Reason: ReasonTrialExpired, Usage: usage}
	}

	if usage.MessagesUsed >= usage.MessageLimit {
		return Decision{Allowed: false, Reason: ReasonLimitReached, Usage: usage}
	}
	return Decision{Allowed: true, Usage: usage}
}

func (l *Limiter) totalLimit(planKey string, addons []AddonPurchase) int {
	total := l.plans[planKey]
	for _, a := range addons {
		total += a.MessagesAdded
	}
	return total
}

// LogUsage performs the ledger insert, counter increment and daily upsert.
// Each effect is attempted even when another fails; failures are logged and
// joined into the returned error.
func (l *Limiter) LogUsage(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.StoreID) == "" {
		return fmt.Errorf("%w: store id is empty", contractx.ErrValidation)
	}
	now := l.now().UTC()
	cost := EstimateCostKobo(rec.InputTokens, rec.OutputTokens)
	tokens := int64(rec.InputTokens + rec.OutputTokens)
	calls := rec.Calls
	if calls <= 0 {
		calls = 1
	}

	logger := log.With().
		Str("store_id", rec.StoreID).
		Str("request_id", rec.RequestID).
		Logger()

	var errs []error

	ev := &Event{
		ID:           uuid.NewString(),
		StoreID:      rec.StoreID,
		RequestID:    rec.RequestID,
		Channel:      rec.Channel,
		Model:        rec.Model,
		InputTokens:  rec.InputTokens,
		OutputTokens: rec.OutputTokens,
		ModelCalls:   calls,
		CostKobo:     cost,
		CreatedAt:    now,
	}
	if err := l.repo.InsertEvent(ctx, ev); err != nil {
		logger.Error().Err(err).Msg("usage ledger insert failed")
		errs = append(errs, fmt.Errorf("insert usage event: %w", err))
	}

	if err := l.repo.IncrementCounters(ctx, rec.StoreID, 1, tokens); err != nil {
		logger.Error().Err(err).Msg("usage counter increment failed")
		errs = append(errs, fmt.Errorf("increment counters: %w", err))
	}

	agg := &DailyAggregate{
		StoreID:      rec.StoreID,
		Date:         time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		MessageCount: 1,
		InputTokens:  int64(rec.InputTokens),
		OutputTokens: int64(rec.OutputTokens),
		CostKobo:     cost,
		UpdatedAt:    now,
	}
	if err := l.repo.UpsertDaily(ctx, agg); err != nil {
		logger.Error().Err(err).Msg("daily usage upsert failed")
		errs = append(errs, fmt.Errorf("upsert daily aggregate: %w", err))
	}

	return errors.Join(errs...)
}

// PurchaseAddon grants extra allowance. Client signals, when present, are
// tracked under the composite (ip, fingerprint) key; that write is best-effort.
func (l *Limiter) PurchaseAddon(ctx context.Context, req AddonRequest) (AddonPurchase, error) {
	storeID := strings.TrimSpace(req.StoreID)
	if storeID == "" {
		return AddonPurchase{}, fmt.Errorf("%w: store id is empty", contractx.ErrValidation)
	}
	if req.MessagesAdded < 0 || req.ImagesAdded < 0 {
		return AddonPurchase{}, fmt.Errorf("%w: addon grants must be >= 0", contractx.ErrValidation)
	}
	if req.MessagesAdded == 0 && req.ImagesAdded == 0 {
		return AddonPurchase{}, fmt.Errorf("%w: addon grants nothing", contractx.ErrValidation)
	}

	sub, err := l.repo.LoadSubscription(ctx, storeID)
	if err != nil {
		return AddonPurchase{}, fmt.Errorf("load subscription: %w", err)
	}

	now := l.now().UTC()
	addon := AddonPurchase{
		ID:             uuid.NewString(),
		SubscriptionID: sub.ID,
		StoreID:        storeID,
		PackKey:        strings.TrimSpace(req.PackKey),
		MessagesAdded:  req.MessagesAdded,
		ImagesAdded:    req.ImagesAdded,
		CreatedAt:      now,
	}
	if err := l.repo.InsertAddon(ctx, &addon); err != nil {
		return AddonPurchase{}, fmt.Errorf("insert addon: %w", err)
	}

	ip := strings.TrimSpace(req.IPAddress)
	fp := strings.TrimSpace(req.DeviceFingerprint)
	if ip != "" && fp != "" {
		sig := &TrialAbuseSignal{
			IPAddress:         ip,
			DeviceFingerprint: fp,
			StoreID:           storeID,
			Hits:              1,
			FirstSeenAt:       now,
			LastSeenAt:        now,
		}
		if err := l.repo.UpsertTrialSignal(ctx, sig); err != nil {
			log.Warn().Err(err).Str("store_id", storeID).Msg("trial abuse signal upsert failed")
		}
	}

	return addon, nil
}

func EstimateCostKobo(inputTokens, outputTokens int) int64 {
	total := int64(inputTokens + outputTokens)
	if total <= 0 {
		return 0
	}
	return total * costRateNumerator / costRateDenominator
}
