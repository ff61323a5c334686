package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/taskmesh/taskmesh/pkg/slogx"
	"github.com/taskmesh/taskmesh/pubsub"
)

// DispatchStrategy picks one task-listener among the instances of a service.
// Pick receives a non-empty snapshot sorted by subscription id and returns
// the chosen stream.
type DispatchStrategy interface {
	Pick(subs []*pubsub.Subscription[pubsub.TaskRequest]) *pubsub.Subscription[pubsub.TaskRequest]
}

// RoundRobin returns the default strategy: rotate over the snapshot so that
// several instances of one service behave as a worker pool.
func RoundRobin() DispatchStrategy {
	return &roundRobin{}
}

type roundRobin struct {
	next atomic.Uint64
}

func (r *roundRobin) Pick(subs []*pubsub.Subscription[pubsub.TaskRequest]) *pubsub.Subscription[pubsub.TaskRequest] {
	n := r.next.Add(1) - 1
	return subs[n%uint64(len(subs))]
}

// Execute validates the target, records a pending execution and pushes it to
// exactly one task-listener of the service. The returned id correlates the
// request with its eventual result. When no listener is connected, or the
// push to the chosen listener fails because its stream closed concurrently,
// the execution is marked failed and ErrNoListener is returned; the work is
// never handed to a second listener.
func (c *Core) Execute(ctx context.Context, serviceID, taskKey string, inputs []byte, tags []string) (string, error) {
	def, ok := c.defs.Get(serviceID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownService, serviceID)
	}
	task, ok := def.Task(taskKey)
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrUnknownTask, serviceID, taskKey)
	}

	exec := c.ledger.Create(serviceID, taskKey, inputs, tags, task.OutputKeys())

	topic := c.bus.Topic(serviceID)
	listeners := topic.TaskListeners()
	if len(listeners) == 0 {
		return "", c.failDispatch(exec.ID, serviceID, "no task listener connected")
	}

	req := pubsub.TaskRequest{
		ExecutionID: exec.ID,
		TaskKey:     taskKey,
		Inputs:      inputs,
		Timestamp:   stamp(),
	}
	if err := topic.DispatchTask(c.strategy.Pick(listeners), req); err != nil {
		return "", c.failDispatch(exec.ID, serviceID, "task listener went away during dispatch")
	}

	slog.Debug("execution dispatched",
		slogx.ExecutionID(exec.ID), slogx.ServiceID(serviceID), slogx.TaskKey(taskKey))
	return exec.ID, nil
}

func (c *Core) failDispatch(execID, serviceID, reason string) error {
	if _, err := c.ledger.Fail(execID, reason); err != nil {
		slog.Warn("could not mark undeliverable execution failed",
			slogx.ExecutionID(execID), slogx.Error(err))
	}
	return fmt.Errorf("%w: %s", ErrNoListener, serviceID)
}
