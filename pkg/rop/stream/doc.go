// Package stream defines the push-based protocol the fallback combinator is
// built on: a Publisher is subscribed to by a Subscriber, which is handed a
// Subscription to signal demand and to cancel. It also ships the small set of
// single-value sources and the blocking sink that callers compose with.
//
// Key constructs:
// - Publisher/Subscriber/Subscription: the protocol
// - PublisherFunc/SubscriberFuncs: adapters from plain functions
// - Just/Empty/Fail/Never/FromResult: synchronous sources
// - FromFunc: run a (T, error) function on its own goroutine on demand
// - Breaker: guard a source with a gobreaker two-step circuit breaker
// - First: block until the first value or terminal signal, as a rop.Result
package stream
