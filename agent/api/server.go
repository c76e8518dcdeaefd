package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/merchant-sales-agent/agent/contract"
	"github.com/tanpawarit/merchant-sales-agent/agent/incident"
	"github.com/tanpawarit/merchant-sales-agent/agent/usage"
)

const (
	requestIDHeader = "X-Request-Id"
	maxBodyBytes    = 1 << 20
	turnTimeout     = 45 * time.Second
)

type Agent interface {
	HandleMessage(ctx context.Context, storeID string, history []*schema.Message, opts contractx.Options) (contractx.Response, error)
}

type Usage interface {
	CheckLimits(ctx context.Context, storeID string) (usage.Decision, error)
	PurchaseAddon(ctx context.Context, req usage.AddonRequest) (usage.AddonPurchase, error)
}

type Incidents interface {
	ReportIncident(ctx context.Context, r incident.Report) (*incident.Incident, error)
	Classify(ctx context.Context, incidentID string) (*incident.Incident, error)
}

// SignatureVerifier checks QStash callback signatures.
type SignatureVerifier interface {
	Verify(signature string, body []byte, destination string) error
}

type Option func(*Server)

// WithIncidents enables the rescue endpoints.
func WithIncidents(inc Incidents) Option {
	return func(s *Server) { s.incidents = inc }
}

// WithCallbackVerifier protects the classification callback. destination is
// the public callback URL QStash signs as the token subject; empty skips the
// subject check.
func WithCallbackVerifier(v SignatureVerifier, destination string) Option {
	return func(s *Server) {
		s.verifier = v
		s.callbackURL = destination
	}
}

// WithAdminKeys enables the operator routes (add-on grants, and the
// classification callback when no signature verifier is set). Without keys
// those routes are not mounted.
func WithAdminKeys(keys ...string) Option {
	return func(s *Server) {
		for _, k := range keys {
			if k = strings.TrimSpace(k); k != "" {
				s.adminKeys = append(s.adminKeys, []byte(k))
			}
		}
	}
}

type Server struct {
	router      *chi.Mux
	agent       Agent
	usage       Usage
	incidents   Incidents
	verifier    SignatureVerifier
	callbackURL string
	adminKeys   [][]byte
	startTime   time.Time
}

func NewServer(agent Agent, limits Usage, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		agent:     agent,
		usage:     limits,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Routes() http.Handler {
	r := s.router
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/stores/{storeID}", func(r chi.Router) {
			r.With(middleware.Timeout(turnTimeout)).Post("/messages", s.handleMessage)
			r.Get("/usage", s.handleUsage)
			if len(s.adminKeys) > 0 {
				r.With(s.requireAdmin).Post("/addons", s.handlePurchaseAddon)
			}
		})
		if s.incidents != nil {
			r.Post("/incidents", s.handleReportIncident)
			switch {
			case s.verifier != nil:
				r.Post("/incidents/classify", s.handleClassifyIncident)
			case len(s.adminKeys) > 0:
				r.With(s.requireAdmin).Post("/incidents/classify", s.handleClassifyIncident)
			}
		}
	})
	if len(s.adminKeys) == 0 {
		log.Warn().Msg("no admin api keys configured, operator routes disabled")
	}
	return r
}

type ctxKeyRequestID struct{}

// requestID propagates the caller's X-Request-Id or assigns a new UUID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return id
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().
			Str("request_id", RequestIDFromContext(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
