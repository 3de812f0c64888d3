package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"workspace-ai/internal/handlers"
	"workspace-ai/internal/storage"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	JobStore storage.JobStore
	Engine   handlers.Searcher
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	indexHandler := handlers.NewIndexHandler(deps.JobStore)
	bulkIndexHandler := handlers.NewBulkIndexHandler(deps.JobStore)
	jobStatusHandler := handlers.NewJobStatusHandler(deps.JobStore)
	searchHandler := handlers.NewSearchHandler(deps.Engine)
	askHandler := handlers.NewAskHandler(deps.Engine)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/index", indexHandler)
		r.Method(http.MethodPost, "/index/bulk", bulkIndexHandler)
		r.Method(http.MethodGet, "/jobs/{id}", jobStatusHandler)
		r.Method(http.MethodPost, "/search", searchHandler)
		r.Method(http.MethodPost, "/ask", askHandler)
	})

	r.Method(http.MethodGet, "/healthz", handlers.NewHealthHandler())

	return r
}
