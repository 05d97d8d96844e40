package fallback

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Option configures a Fallback.
type Option func(*options)

// Handlers are optional callbacks invoked as a trial progresses. They run on
// whatever goroutine delivered the source signal and must not block.
type Handlers struct {
	// OnAttempt is called right before the source at index is subscribed to.
	OnAttempt func(index int)
	// OnSourceFailure receives the error a source failed with. The error
	// itself never reaches the subscriber.
	OnSourceFailure func(index int, err error)
	// OnExhausted is called when no source is left, with the number of sources tried.
	OnExhausted func(attempts int)
}

type options struct {
	logger         *zap.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	handlers       Handlers
}

func defaultOptions() options {
	return options{
		logger:         zap.NewNop(),
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
}

// WithLogger sets the logger trials report their attempts to.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracerProvider overrides the global otel TracerProvider. Every trial
// records one span, with an event per attempted source.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

// WithMeterProvider overrides the global otel MeterProvider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}

// WithHandlers registers progress callbacks.
func WithHandlers(h Handlers) Option {
	return func(o *options) {
		o.handlers = h
	}
}
