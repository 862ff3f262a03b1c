package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Democracy/internal/engine"
	"github.com/MikeSquared-Agency/Democracy/internal/store"
	"github.com/MikeSquared-Agency/Democracy/internal/weighting"
)

func NewRouter(e *engine.Engine, s store.Store, defaultScheme weighting.Scheme, adminToken string, rateLimit int, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(rateLimit))

	weights := NewWeightsHandler(e, s, defaultScheme)
	models := NewModelsHandler(e, s)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/schemes", weights.Schemes)
		r.Get("/models", models.List)

		r.Post("/weights", weights.Compute)
		r.Get("/weights", weights.List)
		r.Get("/weights/{run_id}", weights.Get)
		r.Get("/tree", weights.Tree)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Put("/models", models.Replace)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
