package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"egrul/internal/individual"
	"egrul/internal/platform/metrics"
	"egrul/internal/platform/middleware"
	"egrul/internal/registry"
)

// Registry opens one lookup per API request.
type Registry interface {
	Open() (*registry.Lookup, error)
}

//go:generate mockgen -source=router.go -destination=mocks/mocks.go -package=mocks Individuals

// Individuals resolves personal tax IDs.
type Individuals interface {
	FindINN(ctx context.Context, id individual.Identity) (individual.Result, error)
	FindINNLegacy(ctx context.Context, id individual.Identity) (individual.Result, error)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Handler is the thin HTTP layer. It delegates to the registry and individual
// services and only translates their results to JSON.
type Handler struct {
	registry      Registry
	individuals   Individuals
	logger        *slog.Logger
	metrics       *metrics.Metrics
	lookupTimeout time.Duration
	checks        map[string]HealthCheck
}

type Option func(*Handler)

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithLookupTimeout bounds each registry or tax ID request, backoff included.
func WithLookupTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.lookupTimeout = d
	}
}

// WithHealthCheck adds a named dependency to /healthz.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(h *Handler) {
		h.checks[name] = check
	}
}

func NewHandler(reg Registry, individuals Individuals, logger *slog.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		registry:    reg,
		individuals: individuals,
		logger:      logger,
		checks:      make(map[string]HealthCheck),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter wires all public endpoints. gatherer backs /metrics; nil uses the
// default Prometheus registry.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(h.logger, h.metrics))

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/search", h.handleSearch)
		r.Get("/entities/{query}", h.handleEntity)
		r.Get("/entities/{query}/document", h.handleDocument)
		r.Get("/entities/{query}/reliability", h.handleReliability)
		r.Post("/individuals/inn", h.handleFindINN)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})
	return r
}

func (h *Handler) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.lookupTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.lookupTimeout)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	writeJSON(w, status, healthResponse{Status: state, Checks: checks})
}
