package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires all public endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Route("/ingest", func(r chi.Router) {
		r.Post("/interaction", h.handleIngestInteraction)
		r.Post("/navigation", h.handleIngestNavigation)
		r.Post("/download", h.handleIngestDownload)
	})

	r.Get("/status", h.handleStatus)
	r.Get("/events", h.handleEvents)
	r.Get("/domains", h.handleDomains)
	r.Put("/monitoring", h.handleSetMonitoring)
	r.Post("/reset", h.handleReset)

	r.Get("/healthz", h.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
