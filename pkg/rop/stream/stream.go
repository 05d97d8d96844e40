package stream

// Publisher emits values to the Subscribers that subscribe to it.
type Publisher[T any] interface {
	Subscribe(Subscriber[T])
}

// Subscription links one Subscriber to one Publisher.
type Subscription interface {
	// Request signals demand for up to n more values. Non-positive n is ignored.
	Request(n int64)
	// Cancel asks the Publisher to stop signalling. Calling it more than once is a no-op.
	Cancel()
}

// Subscriber receives OnSubscribe first, then values up to the requested
// demand, then at most one of OnError or OnComplete.
type Subscriber[T any] interface {
	OnSubscribe(Subscription)
	OnNext(T)
	OnError(error)
	OnComplete()
}

// PublisherFunc adapts a plain function to Publisher.
type PublisherFunc[T any] func(Subscriber[T])

func (f PublisherFunc[T]) Subscribe(sub Subscriber[T]) {
	f(sub)
}

// SubscriberFuncs builds a Subscriber out of optional callbacks. Nil callbacks are skipped.
type SubscriberFuncs[T any] struct {
	Subscribed func(Subscription)
	Next       func(T)
	Failed     func(error)
	Completed  func()
}

func (s SubscriberFuncs[T]) OnSubscribe(sub Subscription) {
	if s.Subscribed != nil {
		s.Subscribed(sub)
	}
}

func (s SubscriberFuncs[T]) OnNext(v T) {
	if s.Next != nil {
		s.Next(v)
	}
}

func (s SubscriberFuncs[T]) OnError(err error) {
	if s.Failed != nil {
		s.Failed(err)
	}
}

func (s SubscriberFuncs[T]) OnComplete() {
	if s.Completed != nil {
		s.Completed()
	}
}
