package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskmesh/taskmesh/pubsub"
)

// ListenTask opens a task-listener stream for the service the token belongs
// to. Each dispatched execution of the service is delivered to exactly one
// of its open task-listener streams. The stream ends when ctx is cancelled
// or the subscription is unsubscribed.
func (c *Core) ListenTask(ctx context.Context, token string) (*pubsub.Subscription[pubsub.TaskRequest], error) {
	sid, ok := c.sessions.Get(token)
	if !ok {
		return nil, fmt.Errorf("%w: unknown listen token", ErrUnauthorized)
	}
	return c.bus.Topic(sid).SubscribeTasks(ctx), nil
}

// ListenEvent opens an event-listener stream for a registered service.
func (c *Core) ListenEvent(ctx context.Context, serviceID string, filter pubsub.EventFilter) (*pubsub.Subscription[pubsub.Event], error) {
	if _, ok := c.defs.Get(serviceID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, serviceID)
	}
	return c.bus.Topic(serviceID).SubscribeEvents(ctx, filter), nil
}

// ListenResult opens a result-listener stream for a registered service. An
// output-key filter is only meaningful together with a task-key filter and
// is rejected on its own.
func (c *Core) ListenResult(ctx context.Context, serviceID string, filter pubsub.ResultFilter) (*pubsub.Subscription[pubsub.Result], error) {
	if filter.OutputKey != "" && filter.TaskKey == "" {
		return nil, errors.New("an output filter requires a task filter")
	}
	if _, ok := c.defs.Get(serviceID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, serviceID)
	}
	return c.bus.Topic(serviceID).SubscribeResults(ctx, filter), nil
}
