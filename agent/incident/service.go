package incident

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
	"github.com/tanpawarit/merchant-sales-agent/agent/metrics"
	"github.com/tanpawarit/merchant-sales-agent/agent/redact"
)

const (
	defaultSurface  = "MERCHANT_ADMIN"
	defaultSeverity = SeverityMedium
)

// refreshSafeCategories are the only categories a page reload may fix.
var refreshSafeCategories = map[string]bool{
	"UI_GLITCH":         true,
	"NETWORK_TRANSIENT": true,
	"STALE_SESSION":     true,
}

type Repository interface {
	Upsert(ctx context.Context, inc *Incident) error
	Load(ctx context.Context, id string) (*Incident, error)
	Resolve(ctx context.Context, id string, status Status, c Classification, at time.Time) (bool, error)
}

type Classifier interface {
	Classify(ctx context.Context, inc *Incident) (Classification, error)
}

// Dispatcher schedules classification of an incident outside the report call.
type Dispatcher interface {
	Dispatch(ctx context.Context, incidentID string) error
}

type Option func(*Service)

func WithDispatcher(d Dispatcher) Option {
	return func(s *Service) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

func WithSanitizer(san *redact.Sanitizer) Option {
	return func(s *Service) {
		if san != nil {
			s.sanitizer = san
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

type Service struct {
	repo       Repository
	classifier Classifier
	dispatcher Dispatcher
	sanitizer  *redact.Sanitizer
	now        func() time.Time
}

// NewService wires the rescue pipeline. Without WithDispatcher classification
// runs in a local background goroutine.
func NewService(repo Repository, classifier Classifier, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("incident repository is required")
	}
	s := &Service{
		repo:       repo,
		classifier: classifier,
		sanitizer:  redact.Default,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dispatcher == nil {
		s.dispatcher = NewLocalDispatcher(s.Classify, 0)
	}
	return s, nil
}

// ReportIncident stores the report under its fingerprint and returns at once.
// Classification is dispatched in the background; dispatch failures are only
// logged.
func (s *Service) ReportIncident(ctx context.Context, r Report) (*Incident, error) {
	errorType := strings.TrimSpace(r.ErrorType)
	if errorType == "" {
		return nil, fmt.Errorf("%w: error type is required", contractx.ErrValidation)
	}
	surface := strings.TrimSpace(r.Surface)
	if surface == "" {
		surface = defaultSurface
	}
	severity := r.Severity
	if severity == "" {
		severity = defaultSeverity
	}

	message := s.sanitizer.Redact(strings.TrimSpace(r.ErrorMessage))
	now := s.now().UTC()
	inc := &Incident{
		ID:           uuid.NewString(),
		Fingerprint:  Fingerprint(errorType, message),
		Surface:      surface,
		ErrorType:    errorType,
		ErrorMessage: message,
		Severity:     severity,
		Route:        strings.TrimSpace(r.Route),
		StoreID:      strings.TrimSpace(r.StoreID),
		Status:       StatusRunning,
		Occurrences:  1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Upsert(ctx, inc); err != nil {
		metrics.IncidentsTotal.WithLabelValues("report", "error").Inc()
		return nil, err
	}
	metrics.IncidentsTotal.WithLabelValues("report", "ok").Inc()

	if err := s.dispatcher.Dispatch(ctx, inc.ID); err != nil {
		log.Error().
			Err(err).
			Str("incident_id", inc.ID).
			Str("fingerprint", inc.Fingerprint).
			Msg("dispatch incident classification failed")
	}
	return inc, nil
}

// Classify resolves a RUNNING incident. Incidents in any other state are
// returned unchanged. A classifier failure marks the incident for engineering.
func (s *Service) Classify(ctx context.Context, incidentID string) (*Incident, error) {
	inc, err := s.repo.Load(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if inc.Status != StatusRunning {
		return inc, nil
	}

	verdict, status := s.classify(ctx, inc)

	at := s.now().UTC()
	moved, err := s.repo.Resolve(ctx, inc.ID, status, verdict, at)
	if err != nil {
		metrics.IncidentsTotal.WithLabelValues("classify", "error").Inc()
		return nil, err
	}
	if !moved {
		log.Info().Str("incident_id", inc.ID).Msg("incident left RUNNING before classification finished")
		return s.repo.Load(ctx, inc.ID)
	}
	metrics.IncidentsTotal.WithLabelValues("classify", string(status)).Inc()

	inc.Status = status
	inc.Category = verdict.Category
	inc.Diagnosis = verdict.Diagnosis
	inc.Remediation = verdict.Remediation
	inc.ClassifiedAt = &at
	inc.UpdatedAt = at
	return inc, nil
}

func (s *Service) classify(ctx context.Context, inc *Incident) (Classification, Status) {
	if s.classifier == nil {
		return Classification{Category: "UNKNOWN", Diagnosis: "automatic classification is not configured"}, StatusNeedsEngineering
	}

	verdict, err := s.classifier.Classify(ctx, inc)
	if err != nil {
		log.Error().
			Err(err).
			Str("incident_id", inc.ID).
			Str("fingerprint", inc.Fingerprint).
			Msg("incident classification failed")
		return Classification{
			Category:  "UNKNOWN",
			Diagnosis: "automatic classification failed: " + err.Error(),
		}, StatusNeedsEngineering
	}

	verdict.Category = strings.ToUpper(strings.TrimSpace(verdict.Category))
	if verdict.RefreshSafe && refreshSafeCategories[verdict.Category] {
		return verdict, StatusReadyToRefresh
	}
	return verdict, StatusNeedsEngineering
}
