// Package http assembles the API router from the feature handlers.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "covault/internal/auth/handler"
	certhandler "covault/internal/certificate/handler"
	"covault/internal/platform/middleware"
	userhandler "covault/internal/user/handler"
	"covault/pkg/platform/httputil"
)

// HealthChecker reports readiness of a backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router needs.
type Deps struct {
	Auth         *authhandler.Handler
	Users        *userhandler.Handler
	Certificates *certhandler.Handler
	Sessions     middleware.SessionResolver
	JWT          middleware.JWTValidator
	Logger       *slog.Logger

	// HealthChecks are probed by /health; nil entries are skipped.
	HealthChecks map[string]HealthChecker
}

// NewRouter mounts the API under /api, with the tokenized certificate
// endpoints and auth bootstrap endpoints outside the auth middleware.
func NewRouter(deps Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestMeta())

	r.Get("/health", healthHandler(deps.HealthChecks))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		deps.Auth.RegisterPublicRoutes(api)
		deps.Certificates.RegisterPublicRoutes(api)

		api.Group(func(authed chi.Router) {
			authed.Use(middleware.RequireAuth(deps.Sessions, deps.JWT, deps.Logger))
			deps.Auth.RegisterRoutes(authed)
			deps.Users.RegisterRoutes(authed)
			deps.Certificates.RegisterRoutes(authed)
		})
	})

	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		result := make(map[string]string, len(checks)+1)
		result["status"] = "ok"

		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = "unavailable"
				result["status"] = "degraded"
				continue
			}
			result[name] = "ok"
		}
		httputil.WriteJSON(w, status, result)
	}
}
