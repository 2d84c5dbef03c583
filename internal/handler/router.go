package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/neurolens/agent/internal/config"
	sessionhandler "github.com/neurolens/agent/internal/handler/session"
	"github.com/neurolens/agent/internal/middleware"
	"github.com/neurolens/agent/internal/session"
	"github.com/neurolens/agent/pkg/utils"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// NewRouter assembles the HTTP surface: middleware stack, health and status
// probes, and the session API under /api.
func NewRouter(cfg *config.Config, registry *session.Registry, factory sessionhandler.Factory) http.Handler {
	started := time.Now()

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":         "ok",
			"uptimeSeconds":  int(time.Since(started).Seconds()),
			"activeSessions": registry.Len(),
			"timestamp":      time.Now().UTC().Format(time.RFC3339),
		})
	})

	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"version":        Version,
			"uptimeMinutes":  time.Since(started).Minutes(),
			"activeSessions": registry.Len(),
			"config": map[string]any{
				"analysisIntervalMs":  cfg.Analysis.IntervalMs,
				"confidenceThreshold": cfg.Analysis.ConfidenceThreshold,
				"timeRangeSeconds":    cfg.Analysis.TimeRangeSeconds,
				"showInsights":        cfg.Analysis.ShowInsights,
				"labels":              cfg.Analysis.Labels,
				"primaryLabel":        cfg.Analysis.PrimaryLabel,
			},
		})
	})

	sessions := sessionhandler.New(registry, cfg.Analysis, factory)
	r.Route("/api", func(api chi.Router) {
		sessions.RegisterRoutes(api)
	})

	return r
}
