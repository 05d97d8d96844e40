// Package fallback implements a sequential fallback combinator over
// stream.Publisher sources.
//
// A Fallback holds an ordered list of sources and a mapping function. Every
// subscription starts an independent trial once demand arrives: sources are
// subscribed to one at a time, in order, and a failing source is dropped in
// favour of the next one. The first source to produce a value wins; its value
// is mapped, delivered, and followed by completion. A source that completes
// without a value ends the trial with an empty completion. When no source is
// left the subscriber receives ErrNoElement. Source errors are never passed on.
//
// Key operations:
// - New/Of: build a Fallback with or without a mapping function
// - Subscribe/SubscribeContext: start a trial for a subscriber
// - Request: first positive demand starts the trial, later demand is ignored
// - Cancel: stop the trial and cancel the source being tried
//
// Trials log through zap (WithLogger), record an otel span with one event per
// attempted source (WithTracerProvider), count attempts and outcomes
// (WithMeterProvider), and report per-source failures to Handlers.
package fallback
