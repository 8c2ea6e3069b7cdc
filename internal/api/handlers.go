// Package api wires the gateway's HTTP surface: the health endpoint, the
// reverse proxy to the upstream, and the route tree that binds each governed
// endpoint to its pipeline middleware.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"siggate/internal/models"
	"siggate/internal/version"
)

// Handlers contains the gateway's own HTTP handlers. Everything else is
// proxied upstream.
type Handlers struct {
	proxy *httputil.ReverseProxy
}

// NewHandlers creates the handler set, building the reverse proxy for the
// configured upstream.
func NewHandlers(upstream models.UpstreamConfig) (*Handlers, error) {
	target, err := url.Parse(upstream.URL)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		slog.Error("Upstream proxy error", "upstream", target.Host, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("upstream unavailable", models.ErrorCodeBadGateway))
	}
	if upstream.Timeout > 0 {
		proxy.Transport = &http.Transport{
			ResponseHeaderTimeout: upstream.Timeout,
			Proxy:                 http.ProxyFromEnvironment,
		}
	}

	return &Handlers{proxy: proxy}, nil
}

// Proxy forwards the (already authenticated and admitted) request upstream.
func (h *Handlers) Proxy(w http.ResponseWriter, r *http.Request) {
	h.proxy.ServeHTTP(w, r)
}

// HealthCheck reports service liveness.
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthCheckResponse{
		Status:    "ok",
		Version:   version.GetInfo().Version,
		Timestamp: time.Now(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
