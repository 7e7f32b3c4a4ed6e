package api

import (
	"net/http"

	"archie-core-shopify-sync/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter mounts every endpoint. metrics may be nil.
func NewRouter(h *Handler, metrics http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(docs.SwaggerJSON)
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Post("/webhooks/shopify/{tenantId}", h.ShopifyWebhook)

	r.Route("/api/sync", func(r chi.Router) {
		r.Post("/jobs", h.TriggerJobs)
		r.Post("/jobs/single/{tenantId}", h.TriggerSingle)

		r.Post("/full", h.FullSync)
		r.Post("/full/all", h.FullSyncAll)
		r.Post("/incremental", h.IncrementalSync)
		r.Post("/incremental/all", h.IncrementalSyncAll)

		r.Get("/runs", h.ListRuns)
		r.Get("/events", h.SyncEvents)
	})

	return r
}
