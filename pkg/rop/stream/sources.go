package stream

import (
	"context"
	"sync/atomic"

	"github.com/ib-77/ropfall/pkg/rop"
)

// oneShot is the Subscription behind every single-value source in this
// package. onDemand runs once, on the first positive Request.
type oneShot struct {
	cancelled atomic.Bool
	requested atomic.Bool
	done      atomic.Bool

	onDemand func()
	onCancel func()
}

func (s *oneShot) Request(n int64) {
	if n <= 0 || s.cancelled.Load() {
		return
	}
	if s.requested.CompareAndSwap(false, true) && s.onDemand != nil {
		s.onDemand()
	}
}

func (s *oneShot) Cancel() {
	if s.cancelled.CompareAndSwap(false, true) && s.onCancel != nil {
		s.onCancel()
	}
}

// finish claims the right to send the terminal signal.
func (s *oneShot) finish() bool {
	if s.cancelled.Load() {
		return false
	}
	return s.done.CompareAndSwap(false, true)
}

// Just emits v once demand arrives, then completes.
func Just[T any](v T) Publisher[T] {
	return PublisherFunc[T](func(sub Subscriber[T]) {
		s := &oneShot{}
		s.onDemand = func() {
			if !s.finish() {
				return
			}
			sub.OnNext(v)
			if s.cancelled.Load() {
				return
			}
			sub.OnComplete()
		}
		sub.OnSubscribe(s)
	})
}

// Empty completes without emitting a value.
func Empty[T any]() Publisher[T] {
	return PublisherFunc[T](func(sub Subscriber[T]) {
		s := &oneShot{}
		sub.OnSubscribe(s)
		if s.finish() {
			sub.OnComplete()
		}
	})
}

// Fail signals err right after subscription, without waiting for demand.
func Fail[T any](err error) Publisher[T] {
	return PublisherFunc[T](func(sub Subscriber[T]) {
		s := &oneShot{}
		sub.OnSubscribe(s)
		if s.finish() {
			sub.OnError(err)
		}
	})
}

// Never subscribes and then stays silent until cancelled.
func Never[T any]() Publisher[T] {
	return PublisherFunc[T](func(sub Subscriber[T]) {
		sub.OnSubscribe(&oneShot{})
	})
}

// FromResult replays a rop.Result: a value is emitted and completed, an
// empty result completes, a failed or cancelled result is signalled as an error.
func FromResult[T any](r rop.Result[T]) Publisher[T] {
	switch {
	case r.IsSuccess() && r.HasResult():
		return Just(r.Result())
	case r.IsSuccess():
		return Empty[T]()
	default:
		return Fail[T](r.Err())
	}
}

// FromFunc runs fn on its own goroutine once demand arrives and signals its
// outcome. The context passed to fn is derived from ctx and is cancelled
// when the subscription is cancelled or fn returns.
func FromFunc[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) Publisher[T] {
	if ctx == nil {
		ctx = context.Background()
	}

	return PublisherFunc[T](func(sub Subscriber[T]) {
		runCtx, cancel := context.WithCancel(ctx)
		s := &oneShot{onCancel: cancel}
		s.onDemand = func() {
			go func() {
				defer cancel()

				v, err := fn(runCtx)
				if !s.finish() {
					return
				}
				if err != nil {
					sub.OnError(err)
					return
				}
				sub.OnNext(v)
				if s.cancelled.Load() {
					return
				}
				sub.OnComplete()
			}()
		}
		sub.OnSubscribe(s)
	})
}
