package stream

import (
	"context"
	"sync"

	"github.com/ib-77/ropfall/pkg/rop"
)

// First subscribes to pub, requests a single value and blocks until pub
// produces it, terminates, or ctx is done. The subscription is cancelled
// before First returns.
//
// The returned Result is a success holding the value, an empty success when
// pub completed without one, a failure carrying pub's error, or a
// cancellation carrying ctx.Err(). A pub failing with a context error is
// reported as a cancellation too.
func First[T any](ctx context.Context, pub Publisher[T]) rop.Result[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return rop.Cancel[T](err)
	}

	var (
		mu        sync.Mutex
		handle    Subscription
		cancelled bool
		once      sync.Once
	)
	resCh := make(chan rop.Result[T], 1)
	settle := func(r rop.Result[T]) {
		once.Do(func() {
			resCh <- r
		})
	}
	cancel := func() {
		mu.Lock()
		cancelled = true
		h := handle
		handle = nil
		mu.Unlock()

		if h != nil {
			h.Cancel()
		}
	}

	pub.Subscribe(SubscriberFuncs[T]{
		Subscribed: func(s Subscription) {
			mu.Lock()
			if cancelled {
				mu.Unlock()
				s.Cancel()
				return
			}
			handle = s
			mu.Unlock()

			s.Request(1)
		},
		Next: func(v T) {
			settle(rop.Success(v))
		},
		Failed: func(err error) {
			settle(rop.ResultFromErr[T](err))
		},
		Completed: func() {
			settle(rop.Empty[T]())
		},
	})

	select {
	case r := <-resCh:
		cancel()
		return r
	case <-ctx.Done():
		cancel()
		return rop.Cancel[T](ctx.Err())
	}
}
