package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bibliophage/internal/handlers"
	"bibliophage/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Documents      service.DocumentService
	Pdfs           service.PdfService
	HealthChecks   map[string]handlers.HealthCheck
	MaxUploadBytes int64
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	documents := handlers.NewDocumentHandler(deps.Documents)
	pdfs := handlers.NewPdfHandler(deps.Pdfs, deps.MaxUploadBytes)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.HealthChecks))

		r.Route("/v1", func(r chi.Router) {
			r.Route("/documents", func(r chi.Router) {
				r.Post("/", documents.Store)
				r.Post("/search", documents.Search)
				r.Get("/{id}", documents.Get)
				r.Patch("/{id}", documents.Update)
				r.Delete("/{id}", documents.Delete)
			})
			r.Route("/pdfs", func(r chi.Router) {
				r.Post("/", pdfs.Load)
				r.Post("/search", pdfs.Search)
				r.Get("/{id}", pdfs.Get)
				r.Patch("/{id}", pdfs.Update)
				r.Delete("/{id}", pdfs.Delete)
			})
			r.Route("/jobs", func(r chi.Router) {
				r.Get("/{id}", pdfs.GetJob)
				r.Post("/{id}/cancel", pdfs.CancelJob)
			})
		})
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
