package fallback

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ib-77/ropfall/pkg/rop/stream"
)

type phase int

const (
	phaseNotStarted phase = iota
	phaseTrying
	phaseSucceeded
	phaseExhausted
	phaseCancelled
)

func (p phase) terminal() bool {
	return p >= phaseSucceeded
}

func (p phase) String() string {
	switch p {
	case phaseNotStarted:
		return "not_started"
	case phaseTrying:
		return "trying"
	case phaseSucceeded:
		return "succeeded"
	case phaseExhausted:
		return "exhausted"
	case phaseCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// outcome is what a single source attempt resolved to.
type outcome int

const (
	outcomeValue outcome = iota
	outcomeCompleted
	outcomeRetryNext
)

func (o outcome) String() string {
	switch o {
	case outcomeValue:
		return "value"
	case outcomeCompleted:
		return "completed"
	case outcomeRetryNext:
		return "retry_next"
	default:
		return "unknown"
	}
}

type signal[S any] struct {
	outcome outcome
	value   S
	err     error
}

// trial is the Subscription handed to a Fallback subscriber. It owns the
// position in the source list and the live source subscription.
//
// State is only changed under mu. Calls into sources and the subscriber are
// made without holding it, and only the goroutine that moves phase to a
// terminal value talks to the subscriber afterwards.
type trial[S, T any] struct {
	id       uuid.UUID
	sources  []stream.Publisher[S]
	mapFn    func(S) T
	log      *zap.Logger
	inst     instruments
	handlers Handlers
	ctx      context.Context

	// cancelled is set by every Cancel call, even after termination, so a
	// subscriber cancelling from inside OnNext does not get OnComplete.
	cancelled atomic.Bool

	mu         sync.Mutex
	phase      phase
	next       int
	active     stream.Subscription
	downstream stream.Subscriber[T]
	span       trace.Span
	spanCtx    context.Context
	stop       func() bool
	looping    bool
	missed     bool
}

var _ stream.Subscription = (*trial[int, int])(nil)

func newTrial[S, T any](ctx context.Context, f *Fallback[S, T], sub stream.Subscriber[T]) *trial[S, T] {
	id := uuid.New()
	return &trial[S, T]{
		id:         id,
		sources:    f.sources,
		mapFn:      f.mapFn,
		log:        f.opts.logger.Named("fallback").With(zap.Stringer("trial_id", id)),
		inst:       f.inst,
		handlers:   f.opts.handlers,
		ctx:        ctx,
		downstream: sub,
		span:       trace.SpanFromContext(context.Background()),
		spanCtx:    ctx,
	}
}

// Request starts the trial on the first positive demand. Any later demand is
// ignored: a trial produces at most one value.
func (t *trial[S, T]) Request(n int64) {
	if n <= 0 {
		return
	}

	t.mu.Lock()
	if t.phase != phaseNotStarted {
		t.mu.Unlock()
		return
	}
	t.phase = phaseTrying
	t.mu.Unlock()

	spanCtx, span := t.inst.tracer.Start(t.ctx, "fallback.Trial",
		trace.WithAttributes(
			attribute.String("fallback.trial_id", t.id.String()),
			attribute.Int("fallback.sources", len(t.sources)),
		),
	)

	t.mu.Lock()
	if t.phase != phaseTrying {
		// cancelled while the span was being started
		t.mu.Unlock()
		span.SetAttributes(attribute.String("fallback.outcome", phaseCancelled.String()))
		span.End()
		return
	}
	t.spanCtx, t.span = spanCtx, span
	t.mu.Unlock()

	t.log.Debug("starting trial", zap.Int64("demand", n), zap.Int("sources", len(t.sources)))
	t.advance()
}

// Cancel stops the trial and cancels the source being tried, if any.
func (t *trial[S, T]) Cancel() {
	t.cancelled.Store(true)

	t.mu.Lock()
	if t.phase.terminal() {
		t.mu.Unlock()
		return
	}
	t.phase = phaseCancelled
	active := t.active
	t.active = nil
	t.downstream = nil
	index := t.next
	t.mu.Unlock()

	if active != nil {
		active.Cancel()
	}

	t.log.Debug("trial cancelled", zap.Int("source_index", index))
	t.finish(phaseCancelled, nil)
}

// advance subscribes to the head of the remaining sources. Re-entrant calls,
// from sources failing synchronously inside Subscribe, are folded into the
// running loop instead of recursing.
func (t *trial[S, T]) advance() {
	t.mu.Lock()
	t.missed = true
	if t.looping {
		t.mu.Unlock()
		return
	}
	t.looping = true

	for t.missed && t.phase == phaseTrying {
		t.missed = false

		if t.next >= len(t.sources) {
			t.phase = phaseExhausted
			downstream := t.downstream
			t.downstream = nil
			t.looping = false
			attempts := t.next
			t.mu.Unlock()

			t.log.Warn("all sources failed", zap.Int("attempts", attempts))
			if t.handlers.OnExhausted != nil {
				t.handlers.OnExhausted(attempts)
			}
			t.finish(phaseExhausted, ErrNoElement)
			downstream.OnError(ErrNoElement)
			return
		}

		index := t.next
		source := t.sources[index]
		t.mu.Unlock()

		t.attempt(index, source)

		t.mu.Lock()
	}

	t.looping = false
	t.mu.Unlock()
}

func (t *trial[S, T]) attempt(index int, source stream.Publisher[S]) {
	if !t.current(index) {
		return
	}

	t.log.Debug("trying source", zap.Int("source_index", index))
	t.inst.recordAttempt(t.spanCtx, index)
	t.span.AddEvent("fallback.attempt", trace.WithAttributes(attribute.Int("fallback.source_index", index)))
	if t.handlers.OnAttempt != nil {
		t.handlers.OnAttempt(index)
		if !t.current(index) {
			return
		}
	}

	if source == nil {
		t.settle(index, signal[S]{outcome: outcomeRetryNext, err: errNilSource})
		return
	}
	source.Subscribe(&attempt[S, T]{trial: t, index: index})
}

// current reports whether the source at index is still the one being tried.
func (t *trial[S, T]) current(index int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase == phaseTrying && t.next == index
}

// bind records the subscription of the source at index, or cancels it when
// the trial has already moved on.
func (t *trial[S, T]) bind(index int, s stream.Subscription) {
	t.mu.Lock()
	if t.phase != phaseTrying || index != t.next || t.active != nil {
		t.mu.Unlock()
		s.Cancel()
		return
	}
	t.active = s
	t.mu.Unlock()

	s.Request(1)
}

func (t *trial[S, T]) settle(index int, sig signal[S]) {
	t.mu.Lock()
	if t.phase != phaseTrying || index != t.next {
		p := t.phase
		t.mu.Unlock()
		t.log.Debug("dropping late signal",
			zap.Error(ErrEngineGone),
			zap.Int("source_index", index),
			zap.Stringer("phase", p),
			zap.Stringer("signal", sig.outcome),
		)
		return
	}

	switch sig.outcome {
	case outcomeRetryNext:
		t.next++
		t.active = nil
		t.mu.Unlock()

		t.log.Info("source failed, trying next", zap.Int("source_index", index), zap.Error(sig.err))
		t.span.RecordError(sig.err, trace.WithAttributes(attribute.Int("fallback.source_index", index)))
		if t.handlers.OnSourceFailure != nil {
			t.handlers.OnSourceFailure(index, sig.err)
		}
		t.advance()

	case outcomeValue, outcomeCompleted:
		t.phase = phaseSucceeded
		active, downstream := t.active, t.downstream
		t.active, t.downstream = nil, nil
		t.mu.Unlock()

		if active != nil {
			active.Cancel()
		}
		t.log.Debug("source succeeded", zap.Int("source_index", index), zap.Stringer("signal", sig.outcome))
		t.span.SetAttributes(attribute.Int("fallback.winner_index", index))
		t.finish(phaseSucceeded, nil)

		if sig.outcome == outcomeValue {
			downstream.OnNext(t.mapFn(sig.value))
			if t.cancelled.Load() {
				return
			}
		}
		downstream.OnComplete()
	}
}

// finish runs once, on the transition to a terminal phase.
func (t *trial[S, T]) finish(p phase, err error) {
	t.mu.Lock()
	stop := t.stop
	t.stop = nil
	span, spanCtx := t.span, t.spanCtx
	t.mu.Unlock()

	if stop != nil {
		stop()
	}

	t.inst.recordOutcome(spanCtx, p)
	span.SetAttributes(attribute.String("fallback.outcome", p.String()))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// attempt subscribes to a single source and turns its signals into typed
// outcomes for the trial. A source error never travels further than here.
type attempt[S, T any] struct {
	trial *trial[S, T]
	index int
}

func (a *attempt[S, T]) OnSubscribe(s stream.Subscription) {
	a.trial.bind(a.index, s)
}

func (a *attempt[S, T]) OnNext(v S) {
	a.trial.settle(a.index, signal[S]{outcome: outcomeValue, value: v})
}

func (a *attempt[S, T]) OnError(err error) {
	a.trial.settle(a.index, signal[S]{outcome: outcomeRetryNext, err: err})
}

func (a *attempt[S, T]) OnComplete() {
	a.trial.settle(a.index, signal[S]{outcome: outcomeCompleted})
}
