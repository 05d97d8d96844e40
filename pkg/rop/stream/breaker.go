package stream

import (
	"sync"
	"sync/atomic"

	"github.com/sony/gobreaker"
)

// Breaker guards pub with a circuit breaker. While the circuit is open the
// returned Publisher fails immediately with the breaker's error and pub is not
// subscribed to. Otherwise the outcome of pub is reported to cb: a value or a
// completion counts as a success, an error as a failure. A subscription
// cancelled after demand but before either is reported as a failure, so
// sources that hang until their caller gives up trip the circuit too. A
// cancel before any demand is reported as a success.
func Breaker[T any](pub Publisher[T], cb *gobreaker.TwoStepCircuitBreaker) Publisher[T] {
	return PublisherFunc[T](func(sub Subscriber[T]) {
		done, err := cb.Allow()
		if err != nil {
			Fail[T](err).Subscribe(sub)
			return
		}

		pub.Subscribe(&breakerSubscriber[T]{sub: sub, done: done})
	})
}

type breakerSubscriber[T any] struct {
	sub  Subscriber[T]
	done func(success bool)
	once sync.Once
}

func (b *breakerSubscriber[T]) report(success bool) {
	b.once.Do(func() {
		b.done(success)
	})
}

func (b *breakerSubscriber[T]) OnSubscribe(s Subscription) {
	bs := &breakerSubscription{Subscription: s}
	bs.onCancel = func() { b.report(!bs.requested.Load()) }
	b.sub.OnSubscribe(bs)
}

func (b *breakerSubscriber[T]) OnNext(v T) {
	b.report(true)
	b.sub.OnNext(v)
}

func (b *breakerSubscriber[T]) OnError(err error) {
	b.report(false)
	b.sub.OnError(err)
}

func (b *breakerSubscriber[T]) OnComplete() {
	b.report(true)
	b.sub.OnComplete()
}

type breakerSubscription struct {
	Subscription
	requested atomic.Bool
	onCancel  func()
}

func (s *breakerSubscription) Request(n int64) {
	if n > 0 {
		s.requested.Store(true)
	}
	s.Subscription.Request(n)
}

func (s *breakerSubscription) Cancel() {
	s.onCancel()
	s.Subscription.Cancel()
}
