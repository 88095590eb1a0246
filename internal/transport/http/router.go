// Package httptransport assembles the full HTTP surface from the per-domain
// handler groups.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouteRegistrar is implemented by each domain handler group.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// NewRouter wires the domain handlers plus the operational endpoints.
func NewRouter(registrars ...RouteRegistrar) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	for _, registrar := range registrars {
		registrar.Register(r)
	}

	return r
}
