package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arrestview/arrestview/internal/observability"
	"github.com/arrestview/arrestview/internal/server"
)

// RouterConfig holds the dependencies of the HTTP router.
type RouterConfig struct {
	Service QueryService

	// Metrics records HTTP request metrics. Optional.
	Metrics *observability.Metrics

	// Gatherer backs /metrics. The endpoint is not mounted when nil.
	Gatherer prometheus.Gatherer

	// Shutdown rejects new requests once shutdown begins. Optional.
	Shutdown *server.ShutdownManager

	AllowedOrigins []string
	Env            string
	Logger         *zap.Logger
}

// NewRouter builds the HTTP handler of the service.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	if cfg.Shutdown != nil {
		r.Use(server.ShutdownMiddleware(cfg.Shutdown))
	}
	r.Use(RequestIDMiddleware)
	r.Use(AccessLogMiddleware(log))
	r.Use(RecoveryMiddleware(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         600,
	}))
	r.Use(cfg.Metrics.Middleware())

	h := NewQueryHandler(cfg.Service)
	r.Post("/filter", h.Filter)
	r.Get("/getdata", h.GetData)
	r.Get("/data-summary", h.DataSummary)
	r.Get("/years", h.Years)
	r.Get("/stats", h.Stats)

	r.Get("/health", healthHandler(cfg.Env))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Env     string `json:"env,omitempty"`
}

func healthHandler(env string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, HealthResponse{Status: "healthy", Service: "arrestview", Env: env})
	}
}
