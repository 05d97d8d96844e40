package fallback

import (
	"sync"
	"testing"
	"time"

	"github.com/ib-77/ropfall/pkg/rop/stream"
)

// contacts records the order in which sources were subscribed to.
type contacts struct {
	mu    sync.Mutex
	names []string
}

func (c *contacts) add(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, name)
}

func (c *contacts) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.names...)
}

func tracked[T any](c *contacts, name string, pub stream.Publisher[T]) stream.Publisher[T] {
	return stream.PublisherFunc[T](func(sub stream.Subscriber[T]) {
		c.add(name)
		pub.Subscribe(sub)
	})
}

// pending is a source that stays silent until the test makes it signal.
// It ignores its own cancellation, so late signals can be simulated.
type pending[T any] struct {
	mu         sync.Mutex
	sub        stream.Subscriber[T]
	requested  int64
	cancelled  int
	subscribed chan struct{}
}

func newPending[T any]() *pending[T] {
	return &pending[T]{subscribed: make(chan struct{})}
}

func (p *pending[T]) Subscribe(sub stream.Subscriber[T]) {
	p.mu.Lock()
	p.sub = sub
	p.mu.Unlock()

	sub.OnSubscribe(p)
	close(p.subscribed)
}

func (p *pending[T]) Request(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requested += n
}

func (p *pending[T]) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled++
}

func (p *pending[T]) cancelCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelled
}

func (p *pending[T]) subscriber() stream.Subscriber[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sub
}

func (p *pending[T]) waitSubscribed(t *testing.T) {
	t.Helper()
	select {
	case <-p.subscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("source was never subscribed to")
	}
}

func (p *pending[T]) emit(v T) {
	sub := p.subscriber()
	sub.OnNext(v)
	sub.OnComplete()
}

// sink is a downstream subscriber recording everything it receives.
type sink[T any] struct {
	mu          sync.Mutex
	sub         stream.Subscription
	values      []T
	errs        []error
	completions int

	onNext   func(s *sink[T], v T)
	done     chan struct{}
	doneOnce sync.Once
}

func newSink[T any]() *sink[T] {
	return &sink[T]{done: make(chan struct{})}
}

func (s *sink[T]) OnSubscribe(sub stream.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sub = sub
}

func (s *sink[T]) OnNext(v T) {
	s.mu.Lock()
	s.values = append(s.values, v)
	s.mu.Unlock()

	if s.onNext != nil {
		s.onNext(s, v)
	}
}

func (s *sink[T]) OnError(err error) {
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *sink[T]) OnComplete() {
	s.mu.Lock()
	s.completions++
	s.mu.Unlock()
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *sink[T]) subscription() stream.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub
}

func (s *sink[T]) request(n int64) {
	s.subscription().Request(n)
}

func (s *sink[T]) cancel() {
	s.subscription().Cancel()
}

func (s *sink[T]) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("no terminal signal received")
	}
}

func (s *sink[T]) snapshot() (values []T, errs []error, completions int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.values...), append([]error(nil), s.errs...), s.completions
}
