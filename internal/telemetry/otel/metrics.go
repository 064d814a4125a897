package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "dispenser-identity"

// OutcomeCounter counts RPC results by method and named outcome (e.g. invalid_credentials,
// already_linked, ok). Brute-force attempts show up as a rising invalid_credentials rate.
type OutcomeCounter struct {
	counter metric.Int64Counter
}

// NewOutcomeCounter registers the dispenser.rpc.outcomes counter on provider.
func NewOutcomeCounter(provider metric.MeterProvider) (*OutcomeCounter, error) {
	c, err := provider.Meter(meterName).Int64Counter(
		"dispenser.rpc.outcomes",
		metric.WithDescription("RPC results by method and named outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}
	return &OutcomeCounter{counter: c}, nil
}

// Add records one call. Safe on a nil counter.
func (o *OutcomeCounter) Add(ctx context.Context, method, outcome string) {
	if o == nil {
		return
	}
	o.counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("rpc.method", method),
		attribute.String("outcome", outcome),
	))
}
