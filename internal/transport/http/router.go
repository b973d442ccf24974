package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pensio/pkg/platform/middleware/request"
	"pensio/pkg/platform/middleware/requesttime"
)

// Registrar mounts a module's routes. *calculation/handler.Handler implements it.
type Registrar interface {
	Register(r chi.Router)
}

// Deps are the pieces the router needs from main.
type Deps struct {
	Gatherer prometheus.Gatherer
	Checks   []ReadinessCheck
	Modules  []Registrar
}

// NewRouter wires the public endpoints. Handlers stay thin and delegate to
// module services; request id and request time are set before any of them run.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)

	r.Get("/health", handleLiveness)
	r.Get("/health/ready", readinessHandler(deps.Checks))
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	for _, m := range deps.Modules {
		m.Register(r)
	}
	return r
}
