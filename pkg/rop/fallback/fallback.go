package fallback

import (
	"context"
	"slices"

	"github.com/ib-77/ropfall/pkg/rop/stream"
)

// Fallback is a Publisher that tries its sources one at a time, in order,
// and emits the mapped value of the first one that succeeds. It is immutable
// and may be subscribed to any number of times; every subscription runs its
// own independent trial.
type Fallback[S, T any] struct {
	sources []stream.Publisher[S]
	mapFn   func(S) T
	opts    options
	inst    instruments
}

var _ stream.Publisher[int] = (*Fallback[int, int])(nil)

// New creates a Fallback over sources that maps the winning value with mapFn.
// No source is contacted until a subscriber requests demand.
func New[S, T any](sources []stream.Publisher[S], mapFn func(S) T, opts ...Option) *Fallback[S, T] {
	if mapFn == nil {
		panic("fallback: nil map function")
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return &Fallback[S, T]{
		sources: slices.Clone(sources),
		mapFn:   mapFn,
		opts:    o,
		inst:    newInstruments(o),
	}
}

// Of creates a Fallback that emits the winning value unchanged.
func Of[T any](sources []stream.Publisher[T], opts ...Option) *Fallback[T, T] {
	return New(sources, identity[T], opts...)
}

func identity[T any](v T) T {
	return v
}

// Len returns the number of sources.
func (f *Fallback[S, T]) Len() int {
	return len(f.sources)
}

// Subscribe implements stream.Publisher.
func (f *Fallback[S, T]) Subscribe(sub stream.Subscriber[T]) {
	f.SubscribeContext(context.Background(), sub)
}

// SubscribeContext subscribes sub and ties the trial to ctx: the trial span
// is parented on ctx and the trial is cancelled once ctx is done. When ctx is
// already done, sub receives a cancelled subscription that never signals and
// no source is contacted.
func (f *Fallback[S, T]) SubscribeContext(ctx context.Context, sub stream.Subscriber[T]) {
	if sub == nil {
		panic("fallback: nil subscriber")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	t := newTrial(ctx, f, sub)
	if ctx.Err() != nil {
		t.Cancel()
	} else if ctx.Done() != nil {
		t.mu.Lock()
		t.stop = context.AfterFunc(ctx, t.Cancel)
		t.mu.Unlock()
	}

	sub.OnSubscribe(t)
}
