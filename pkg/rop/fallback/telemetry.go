package fallback

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ib-77/ropfall/pkg/rop/fallback"

type instruments struct {
	tracer   trace.Tracer
	attempts metric.Int64Counter
	outcomes metric.Int64Counter
}

func newInstruments(o options) instruments {
	meter := o.meterProvider.Meter(instrumentationName)

	attempts, err := meter.Int64Counter(
		"fallback.attempts",
		metric.WithDescription("Sources subscribed to by fallback trials."),
	)
	if err != nil {
		attempts = metricnoop.Int64Counter{}
	}

	outcomes, err := meter.Int64Counter(
		"fallback.outcomes",
		metric.WithDescription("Terminated fallback trials by outcome."),
	)
	if err != nil {
		outcomes = metricnoop.Int64Counter{}
	}

	return instruments{
		tracer:   o.tracerProvider.Tracer(instrumentationName),
		attempts: attempts,
		outcomes: outcomes,
	}
}

func (i instruments) recordAttempt(ctx context.Context, index int) {
	i.attempts.Add(ctx, 1, metric.WithAttributes(attribute.Int("fallback.source_index", index)))
}

func (i instruments) recordOutcome(ctx context.Context, p phase) {
	i.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("fallback.outcome", p.String())))
}
