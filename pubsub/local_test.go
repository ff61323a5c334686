package pubsub

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect[T any](sub *Subscription[T], n int, timeout time.Duration) ([]T, error) {
	var out []T
	deadline := time.After(timeout)
	for len(out) < n {
		select {
		case msg, ok := <-sub.C():
			if !ok {
				return out, fmt.Errorf("stream closed after %d messages", len(out))
			}
			out = append(out, msg)
		case <-deadline:
			return out, fmt.Errorf("timed out after %d messages", len(out))
		}
	}
	return out, nil
}

func TestTopicReuse(t *testing.T) {
	bus := NewBus()
	assert.Same(t, bus.Topic("svc"), bus.Topic("svc"))
	assert.NotSame(t, bus.Topic("svc"), bus.Topic("other"))
}

func TestPublishEventToAllMatching(t *testing.T) {
	bus := NewBus()
	topic := bus.Topic("svc")
	ctx := context.Background()

	all := topic.SubscribeEvents(ctx, EventFilter{})
	started := topic.SubscribeEvents(ctx, EventFilter{EventKey: "started"})
	stopped := topic.SubscribeEvents(ctx, EventFilter{EventKey: "stopped"})
	defer all.Unsubscribe()
	defer started.Unsubscribe()
	defer stopped.Unsubscribe()

	topic.PublishEvent(Event{ServiceID: "svc", EventKey: "started", Data: []byte(`{"n":1}`)})
	topic.PublishEvent(Event{ServiceID: "svc", EventKey: "started", Data: []byte(`{"n":2}`)})

	got, err := collect(all, 2, time.Second)
	require.NoError(t, err)
	// emission order is preserved per subscriber
	assert.Equal(t, []byte(`{"n":1}`), got[0].Data)
	assert.Equal(t, []byte(`{"n":2}`), got[1].Data)

	got, err = collect(started, 2, time.Second)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	select {
	case ev := <-stopped.C():
		t.Fatalf("filtered-out subscriber received %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNoReplayForLateSubscribers(t *testing.T) {
	bus := NewBus()
	topic := bus.Topic("svc")

	topic.PublishEvent(Event{ServiceID: "svc", EventKey: "early"})

	late := topic.SubscribeEvents(context.Background(), EventFilter{})
	defer late.Unsubscribe()

	select {
	case ev := <-late.C():
		t.Fatalf("late subscriber received replayed event %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	topic := bus.Topic("svc")

	sub := topic.SubscribeEvents(context.Background(), EventFilter{})
	topic.PublishEvent(Event{ServiceID: "svc", EventKey: "one"})

	got, err := collect(sub, 1, time.Second)
	require.NoError(t, err)
	require.Len(t, got, 1)

	sub.Unsubscribe()
	topic.PublishEvent(Event{ServiceID: "svc", EventKey: "two"})

	_, ok := <-sub.C()
	assert.False(t, ok, "channel must be closed after unsubscribe")
}

func TestContextCancellationRemovesSubscription(t *testing.T) {
	bus := NewBus()
	topic := bus.Topic("svc")

	ctx, cancel := context.WithCancel(context.Background())
	sub := topic.SubscribeResults(ctx, ResultFilter{})
	cancel()

	assert.Eventually(t, func() bool {
		_, ok := topic.results.Get(sub.ID())
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestSlowSubscriberIsDroppedNotBlocking(t *testing.T) {
	bus := NewBus().WithSlowSubscriberTimeout(20 * time.Millisecond).WithSubscriberBuffer(1)
	topic := bus.Topic("svc")
	ctx := context.Background()

	slow := topic.SubscribeResults(ctx, ResultFilter{})
	healthy := topic.SubscribeResults(ctx, ResultFilter{})
	defer healthy.Unsubscribe()

	// drain the healthy subscriber continuously; never drain the slow one
	gotHealthy := make(chan []Result, 1)
	go func() {
		got, err := collect(healthy, 3, 2*time.Second)
		assert.NoError(t, err)
		gotHealthy <- got
	}()

	// the first publish fills the slow subscriber's buffer, the second pays
	// one timeout and drops it, the third must not wait on it at all
	topic.PublishResult(Result{ExecutionID: "E1", ServiceID: "svc"})
	start := time.Now()
	topic.PublishResult(Result{ExecutionID: "E2", ServiceID: "svc"})
	topic.PublishResult(Result{ExecutionID: "E3", ServiceID: "svc"})
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 200*time.Millisecond)
	assert.Len(t, <-gotHealthy, 3, "healthy subscriber sees every message")

	assert.Eventually(t, func() bool {
		_, ok := topic.results.Get(slow.ID())
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestTaskListenersSnapshot(t *testing.T) {
	bus := NewBus()
	topic := bus.Topic("svc")
	ctx := context.Background()

	assert.Empty(t, topic.TaskListeners())

	a := topic.SubscribeTasks(ctx)
	b := topic.SubscribeTasks(ctx)
	defer a.Unsubscribe()
	defer b.Unsubscribe()

	subs := topic.TaskListeners()
	require.Len(t, subs, 2)
	// snapshot order is stable between calls
	assert.Equal(t, subs[0].ID(), topic.TaskListeners()[0].ID())

	a.Unsubscribe()
	assert.Len(t, topic.TaskListeners(), 1)
}

func TestDispatchTask(t *testing.T) {
	bus := NewBus()
	topic := bus.Topic("svc")

	sub := topic.SubscribeTasks(context.Background())
	req := TaskRequest{ExecutionID: "E1", TaskKey: "taskX", Inputs: []byte(`{"a":1}`)}
	require.NoError(t, topic.DispatchTask(sub, req))

	got, err := collect(sub, 1, time.Second)
	require.NoError(t, err)
	assert.Equal(t, req, got[0])

	sub.Unsubscribe()
	err = topic.DispatchTask(sub, req)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBusClose(t *testing.T) {
	bus := NewBus()
	topic := bus.Topic("svc")
	ctx := context.Background()

	tasks := topic.SubscribeTasks(ctx)
	events := topic.SubscribeEvents(ctx, EventFilter{})
	results := topic.SubscribeResults(ctx, ResultFilter{})

	bus.Close()

	_, ok := <-tasks.C()
	assert.False(t, ok)
	_, ok = <-events.C()
	assert.False(t, ok)
	_, ok = <-results.C()
	assert.False(t, ok)
}
