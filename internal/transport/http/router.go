// Package httptransport wires the HTTP surface: middleware stack, public
// reads, and authenticated mutations.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	directoryhandler "vprove/internal/directory/handler"
	ledgerhandler "vprove/internal/ledger/handler"
	"vprove/internal/platform/health"
	"vprove/internal/platform/middleware"
	registryhandler "vprove/internal/registry/handler"
)

// Deps holds the wired handlers the router mounts.
type Deps struct {
	Registry  *registryhandler.Handler
	Ledger    *ledgerhandler.Handler
	Directory *directoryhandler.Handler
	Health    *health.Handler
	Validator middleware.JWTValidator
}

// NewRouter assembles the full middleware stack and mounts all endpoints.
// Reads are public; every mutation requires a bearer token identifying the
// calling account.
func NewRouter(deps Deps, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics)

	deps.Health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Public read surface.
	r.Group(func(r chi.Router) {
		deps.Registry.RegisterReads(r)
		deps.Ledger.RegisterReads(r)
		deps.Directory.RegisterReads(r)
	})

	// Authenticated mutation surface.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(deps.Validator, logger))

		deps.Registry.RegisterMutations(r)
		deps.Ledger.RegisterMutations(r)
		deps.Directory.RegisterMutations(r)
	})

	return r
}
