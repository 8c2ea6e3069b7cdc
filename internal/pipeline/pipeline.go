// Package pipeline orchestrates the per-request processing chain: canonical
// request construction, signature verification, traffic governance, then the
// wrapped handler. Each stage maps to exactly one HTTP status family on
// failure: 401 for any authentication failure, 429 for rate rejection, 423
// for concurrency rejection.
package pipeline

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"siggate/internal/governance"
	"siggate/internal/keystore"
	"siggate/internal/models"
	"siggate/internal/observability"
	"siggate/internal/signature"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/trace"
)

type contextKey string

// keyIDContextKey carries the authenticated key id for handlers and logs.
const keyIDContextKey contextKey = "signature_key_id"

// DebugSigningStringHeader carries the base64 of the computed signing string
// when the diagnostic debug surface is enabled.
const DebugSigningStringHeader = "X-Signing-String"

// Pipeline holds the verification engine, key resolver, gate, and resolved
// endpoint policies. Construct once at startup; safe for concurrent use.
type Pipeline struct {
	engine   *signature.Engine
	keys     keystore.Keystore
	gate     *governance.Gate
	policies map[string]governance.Policy
	metrics  *observability.PipelineMetrics

	authEnabled  bool
	debugHeaders bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics wires pipeline instrumentation. Without it nothing is recorded.
func WithMetrics(m *observability.PipelineMetrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithAuthDisabled turns Authenticate into a pass-through. Intended for
// trusted-network deployments where a fronting proxy authenticates.
func WithAuthDisabled() Option {
	return func(p *Pipeline) { p.authEnabled = false }
}

// WithDebugHeaders echoes the computed signing string (base64) in the
// DebugSigningStringHeader response header. Diagnostic only.
func WithDebugHeaders() Option {
	return func(p *Pipeline) { p.debugHeaders = true }
}

// New creates a pipeline. policies maps endpoint names to their resolved
// traffic limits; the map is used as-is and must not be mutated afterwards.
func New(engine *signature.Engine, keys keystore.Keystore, gate *governance.Gate, policies map[string]governance.Policy, opts ...Option) *Pipeline {
	p := &Pipeline{
		engine:      engine,
		keys:        keys,
		gate:        gate,
		policies:    policies,
		authEnabled: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// KeyIDFromContext returns the authenticated signing key id, if the request
// passed through Authenticate.
func KeyIDFromContext(ctx context.Context) (string, bool) {
	keyID, ok := ctx.Value(keyIDContextKey).(string)
	return keyID, ok
}

// Authenticate verifies the request signature before the next handler runs.
//
// Every failure - malformed header, unknown key, structural signature error,
// digest mismatch - produces the same 401 response body. The causes are
// distinguished in logs and metrics only; a client must not be able to tell
// which check rejected it.
func (p *Pipeline) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !p.authEnabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()

		sig, err := signature.ParseAuthorization(r.Header.Get("Authorization"))
		if err != nil {
			p.metrics.RecordAuthOutcome(ctx, observability.AuthOutcomeMalformed)
			p.authFailed(ctx, w, "malformed signature header", "error", err)
			return
		}

		key, err := p.keys.Lookup(ctx, sig.KeyID)
		if err != nil {
			if errors.Is(err, keystore.ErrKeyNotFound) {
				p.metrics.RecordAuthOutcome(ctx, observability.AuthOutcomeUnknownKey)
				p.authFailed(ctx, w, "unknown signing key", "key_id", sig.KeyID)
				return
			}
			slog.Error("Keystore lookup failed", "error", err)
			p.writeError(w, http.StatusInternalServerError, "internal error", models.ErrorCodeInternalError)
			return
		}

		if key.Algorithm != "" && key.Algorithm != sig.Algorithm {
			p.metrics.RecordAuthOutcome(ctx, observability.AuthOutcomeAlgorithmPin)
			p.authFailed(ctx, w, "algorithm not permitted for key", "key_id", sig.KeyID, "presented", sig.Algorithm)
			return
		}

		canonical := signature.NewCanonicalRequest(r)

		if p.debugHeaders {
			if msg, err := p.engine.SigningString(sig, canonical); err == nil {
				w.Header().Set(DebugSigningStringHeader, base64.StdEncoding.EncodeToString(msg))
			}
		}

		ok, err := p.engine.Verify(key.Secret, sig, canonical)
		if err != nil {
			p.metrics.RecordAuthOutcome(ctx, observability.AuthOutcomeStructural)
			p.authFailed(ctx, w, "structural signature error", "error", err)
			return
		}
		if !ok {
			p.metrics.RecordAuthOutcome(ctx, observability.AuthOutcomeMismatch)
			p.authFailed(ctx, w, "signature digest mismatch", "key_id", sig.KeyID)
			return
		}

		p.metrics.RecordAuthOutcome(ctx, observability.AuthOutcomeVerified)
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, keyIDContextKey, sig.KeyID)))
	})
}

// Govern returns middleware enforcing the named endpoint's traffic policy.
// An endpoint name with no declared policy is a wiring bug and fails at
// setup, never at request time.
func (p *Pipeline) Govern(endpoint string) (mux.MiddlewareFunc, error) {
	policy, ok := p.policies[endpoint]
	if !ok {
		return nil, errors.New("no governance policy declared for endpoint " + endpoint)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			result, err := p.gate.Admit(ctx, endpoint, policy)
			if err != nil {
				slog.Error("Gate admission failed", "endpoint", endpoint, "error", err)
				p.writeError(w, http.StatusInternalServerError, "internal error", models.ErrorCodeInternalError)
				return
			}

			p.metrics.RecordDecision(ctx, endpoint, result.Decision.String())

			switch result.Decision {
			case governance.RateExceeded:
				p.writeError(w, result.Decision.StatusCode(), "rate limit exceeded", models.ErrorCodeRateLimited)
				return
			case governance.ConcurrencyExceeded:
				p.writeError(w, result.Decision.StatusCode(), "concurrency limit exceeded", models.ErrorCodeConcurrencyLimited)
				return
			}

			// Release must fire exactly once on every exit path, including
			// handler panics; Result.Release is idempotent and never nil.
			defer result.Release()

			p.metrics.AddInFlight(ctx, endpoint, 1)
			defer p.metrics.AddInFlight(ctx, endpoint, -1)

			next.ServeHTTP(w, r)
		})
	}, nil
}

// authFailed logs the real cause at warn level and sends the opaque 401.
func (p *Pipeline) authFailed(ctx context.Context, w http.ResponseWriter, reason string, attrs ...any) {
	attrs = append([]any{"reason", reason}, attrs...)
	if span := trace.SpanFromContext(ctx); span.SpanContext().HasTraceID() {
		attrs = append(attrs, "trace_id", span.SpanContext().TraceID().String())
	}
	slog.Warn("Authentication failed", attrs...)

	p.writeError(w, http.StatusUnauthorized, "authentication failed", models.ErrorCodeUnauthorized)
}

func (p *Pipeline) writeError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.NewErrorResponse(message, code))
}
