package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Authentication outcome labels recorded by the pipeline. The label
// distinguishes failure causes for operators; the HTTP response does not.
const (
	AuthOutcomeVerified     = "verified"
	AuthOutcomeMalformed    = "malformed_header"
	AuthOutcomeUnknownKey   = "unknown_key"
	AuthOutcomeStructural   = "structural_error"
	AuthOutcomeMismatch     = "digest_mismatch"
	AuthOutcomeAlgorithmPin = "algorithm_pin_violation"
)

// PipelineMetrics holds the instruments the request pipeline records into.
// A nil *PipelineMetrics is valid and records nothing, so wiring can skip
// metrics entirely when they are disabled.
type PipelineMetrics struct {
	authOutcomes metric.Int64Counter
	decisions    metric.Int64Counter
	inFlight     metric.Int64UpDownCounter
}

// NewPipelineMetrics creates the pipeline instruments on the global meter
// provider. Call after Setup so the instruments land in the Prometheus
// exporter.
func NewPipelineMetrics() (*PipelineMetrics, error) {
	meter := otel.Meter("siggate/pipeline")

	authOutcomes, err := meter.Int64Counter(
		"siggate_auth_outcomes_total",
		metric.WithDescription("Authentication attempts by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth outcome counter: %w", err)
	}

	decisions, err := meter.Int64Counter(
		"siggate_governance_decisions_total",
		metric.WithDescription("Gate admission decisions by endpoint and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create decision counter: %w", err)
	}

	inFlight, err := meter.Int64UpDownCounter(
		"siggate_in_flight_requests",
		metric.WithDescription("Currently executing governed requests by endpoint"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-flight counter: %w", err)
	}

	return &PipelineMetrics{
		authOutcomes: authOutcomes,
		decisions:    decisions,
		inFlight:     inFlight,
	}, nil
}

// RecordAuthOutcome counts one authentication attempt.
func (m *PipelineMetrics) RecordAuthOutcome(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.authOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordDecision counts one gate decision for an endpoint.
func (m *PipelineMetrics) RecordDecision(ctx context.Context, endpoint, decision string) {
	if m == nil {
		return
	}
	m.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("decision", decision),
	))
}

// AddInFlight moves the in-flight gauge for an endpoint by delta.
func (m *PipelineMetrics) AddInFlight(ctx context.Context, endpoint string, delta int64) {
	if m == nil {
		return
	}
	m.inFlight.Add(ctx, delta, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}
