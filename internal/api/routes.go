package api

import (
	"fmt"
	"net/http"

	"siggate/internal/models"
	"siggate/internal/pipeline"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// RouteOption configures optional route behavior.
type RouteOption func(*mux.Router)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
// Health checks are excluded from tracing.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(r *mux.Router) {
		r.Use(otelmux.Middleware(serviceName,
			otelmux.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/health"
			}),
		))
	}
}

// SetupRoutes builds the gateway route tree. The health endpoint stays open;
// every other route passes through authentication, and each declared
// endpoint additionally passes through its governance middleware before the
// request is proxied. An endpoint whose policy cannot be resolved is a
// setup-time error.
func SetupRoutes(handlers *Handlers, p *pipeline.Pipeline, governance models.GovernanceConfig, opts ...RouteOption) (*mux.Router, error) {
	router := mux.NewRouter()

	for _, opt := range opts {
		opt(router)
	}

	router.Use(RequestIDMiddleware())

	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET")

	proxied := router.PathPrefix("/").Subrouter()
	proxied.Use(p.Authenticate)

	for _, ep := range governance.Endpoints {
		govern, err := p.Govern(ep.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to wire endpoint %q: %w", ep.Name, err)
		}

		route := proxied.Handle(ep.Path, govern(http.HandlerFunc(handlers.Proxy))).Name(ep.Name)
		if len(ep.Methods) > 0 {
			route.Methods(ep.Methods...)
		}
	}

	// Ungoverned fallback: authenticated traffic with no declared endpoint
	// policy is proxied without traffic limits.
	proxied.PathPrefix("/").HandlerFunc(handlers.Proxy)

	return router, nil
}
