package pubsub

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/taskmesh/taskmesh/pkg/uuidx"
)

const (
	defaultSlowSubscriberTimeout = 100 * time.Millisecond
	defaultSubscriberBuffer      = 50
)

// Bus is the process-wide subscription registry. One topic per service id,
// created lazily on first use.
type Bus struct {
	topics                *haxmap.Map[string, *Topic]
	slowSubscriberTimeout time.Duration
	subscriberBuffer      int
}

func NewBus() *Bus {
	return &Bus{
		topics:                haxmap.New[string, *Topic](),
		slowSubscriberTimeout: defaultSlowSubscriberTimeout,
		subscriberBuffer:      defaultSubscriberBuffer,
	}
}

// WithSlowSubscriberTimeout configures how long a push waits on a full
// subscriber buffer before the subscriber is dropped.
func (b *Bus) WithSlowSubscriberTimeout(timeout time.Duration) *Bus {
	b.slowSubscriberTimeout = timeout
	return b
}

// WithSubscriberBuffer configures the per-subscriber channel capacity.
func (b *Bus) WithSubscriberBuffer(size int) *Bus {
	b.subscriberBuffer = size
	return b
}

// Topic returns the topic for a service id, creating it if needed.
func (b *Bus) Topic(sid string) *Topic {
	topic, _ := b.topics.GetOrCompute(sid, func() *Topic {
		return &Topic{
			sid:         sid,
			sendTimeout: b.slowSubscriberTimeout,
			buffer:      b.subscriberBuffer,
			tasks:       haxmap.New[string, *Subscription[TaskRequest]](),
			events:      haxmap.New[string, *Subscription[Event]](),
			results:     haxmap.New[string, *Subscription[Result]](),
		}
	})
	return topic
}

// Close unsubscribes every subscription on every topic. Used at broker
// shutdown to end all in-flight streams.
func (b *Bus) Close() {
	b.topics.ForEach(func(_ string, t *Topic) bool {
		t.tasks.ForEach(func(_ string, s *Subscription[TaskRequest]) bool {
			s.Unsubscribe()
			return true
		})
		t.events.ForEach(func(_ string, s *Subscription[Event]) bool {
			s.Unsubscribe()
			return true
		})
		t.results.ForEach(func(_ string, s *Subscription[Result]) bool {
			s.Unsubscribe()
			return true
		})
		return true
	})
}

// Topic holds the subscriber sets of one service, one per listener kind.
type Topic struct {
	sid         string
	sendTimeout time.Duration
	buffer      int
	tasks       *haxmap.Map[string, *Subscription[TaskRequest]]
	events      *haxmap.Map[string, *Subscription[Event]]
	results     *haxmap.Map[string, *Subscription[Result]]
}

// SubscribeTasks opens a task-listener stream. Task listeners have no
// filter: each one is a candidate for every dispatched execution of the
// service, and the dispatcher picks exactly one per execution.
func (t *Topic) SubscribeTasks(ctx context.Context) *Subscription[TaskRequest] {
	return subscribe(ctx, t.tasks, t.buffer, func(TaskRequest) bool { return true })
}

// SubscribeEvents opens an event-listener stream with an optional filter.
func (t *Topic) SubscribeEvents(ctx context.Context, filter EventFilter) *Subscription[Event] {
	return subscribe(ctx, t.events, t.buffer, filter.Matches)
}

// SubscribeResults opens a result-listener stream with an optional filter.
func (t *Topic) SubscribeResults(ctx context.Context, filter ResultFilter) *Subscription[Result] {
	return subscribe(ctx, t.results, t.buffer, filter.Matches)
}

// TaskListeners returns a snapshot of the current task-listener
// subscriptions, sorted by id. V7 ids sort roughly by subscription time, so
// the order is stable between calls while the set does not change.
func (t *Topic) TaskListeners() []*Subscription[TaskRequest] {
	subs := make([]*Subscription[TaskRequest], 0, t.tasks.Len())
	t.tasks.ForEach(func(_ string, s *Subscription[TaskRequest]) bool {
		subs = append(subs, s)
		return true
	})
	slices.SortFunc(subs, func(a, b *Subscription[TaskRequest]) int {
		return strings.Compare(a.id, b.id)
	})
	return subs
}

// DispatchTask pushes a request to a single chosen task-listener. Unlike
// fan-out, a failed push is surfaced to the caller: the dispatcher treats it
// as having no listener.
func (t *Topic) DispatchTask(sub *Subscription[TaskRequest], req TaskRequest) error {
	return sub.push(req, t.sendTimeout)
}

// PublishResult fans a result out to every currently subscribed
// result-listener whose filter matches. Best effort per subscriber: one that
// cannot keep up is unsubscribed, and no delivery failure is reported to the
// caller.
func (t *Topic) PublishResult(r Result) {
	fanOut(t.results, r, t.sendTimeout)
}

// PublishEvent fans an event out to every matching event-listener.
func (t *Topic) PublishEvent(ev Event) {
	fanOut(t.events, ev, t.sendTimeout)
}

func fanOut[T any](subs *haxmap.Map[string, *Subscription[T]], msg T, timeout time.Duration) {
	subs.ForEach(func(_ string, sub *Subscription[T]) bool {
		if !sub.match(msg) {
			return true
		}
		if err := sub.push(msg, timeout); err != nil {
			// slow or already-gone subscriber: drop it, never stall the rest
			sub.Unsubscribe()
		}
		return true
	})
}

func subscribe[T any](ctx context.Context, subs *haxmap.Map[string, *Subscription[T]], buffer int, match func(T) bool) *Subscription[T] {
	id := uuidx.NewString()
	sub := &Subscription[T]{
		id:      id,
		ctx:     ctx,
		ch:      make(chan T, buffer),
		done:    make(chan struct{}),
		match:   match,
		onClose: func() { subs.Del(id) },
	}
	subs.Set(id, sub)
	go sub.watch()
	return sub
}

// Subscription is one open listener stream. The registry holds a non-owning
// reference for fan-out; the consumer owns the lifecycle and must call
// Unsubscribe (or cancel the context it subscribed with) when done.
type Subscription[T any] struct {
	id        string
	ctx       context.Context
	ch        chan T
	done      chan struct{}
	match     func(T) bool
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	onClose   func()
}

// ID returns the subscription's unique id.
func (s *Subscription[T]) ID() string {
	return s.id
}

// C returns the stream of messages. The channel is closed on Unsubscribe.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Unsubscribe removes the subscription from the registry and closes the
// stream. Safe to call more than once and concurrently with fan-out.
func (s *Subscription[T]) Unsubscribe() {
	s.closeOnce.Do(func() {
		s.onClose()
		close(s.done)
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
}

func (s *Subscription[T]) push(msg T, timeout time.Duration) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case <-s.ctx.Done():
		return ErrClosed
	case s.ch <- msg:
		return nil
	case <-time.After(timeout):
		return ErrSlowSubscriber
	}
}

// watch unsubscribes when the subscriber's context ends before an explicit
// Unsubscribe, so a dead stream leaves the registry promptly.
func (s *Subscription[T]) watch() {
	select {
	case <-s.ctx.Done():
		s.Unsubscribe()
	case <-s.done:
	}
}
