package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/teascroll/internal/config"
	"github.com/dgallion1/teascroll/internal/dataset"
	"github.com/dgallion1/teascroll/internal/metrics"
	"github.com/dgallion1/teascroll/internal/relay"
	"github.com/dgallion1/teascroll/internal/upstream"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/semaphore"
)

// Server is the HTTP API for the tea-culture site.
type Server struct {
	router  chi.Router
	cache   *dataset.Cache
	client  *upstream.Client
	stats   *upstream.Stats
	relay   *relay.Relay
	metrics *metrics.Metrics
	asks    *semaphore.Weighted // nil when unlimited
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server. client may be nil, in
// which case /ask answers 503.
func NewServer(cache *dataset.Cache, client *upstream.Client, stats *upstream.Stats, m *metrics.Metrics, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		cache:   cache,
		client:  client,
		stats:   stats,
		relay:   relay.New(log, m, stats),
		metrics: m,
		log:     log,
		cfg:     cfg,
	}
	if cfg.MaxConcurrentAsks > 0 {
		s.asks = semaphore.NewWeighted(int64(cfg.MaxConcurrentAsks))
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/dataset", s.handleDataset)
		r.Get("/dataset/status", s.handleDatasetStatus)
		r.Get("/dataset/{section}", s.handleDatasetSection)
		r.Get("/stats/upstream", s.handleUpstreamStats)
	})

	// The chat proxy spends upstream quota, so it sits behind the key when one is set.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}
		r.Post("/ask", s.handleAsk)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"dataset_cached": s.cache.Cached(),
	})
}
