package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taskmesh/taskmesh/pkg/slogx"
	"github.com/taskmesh/taskmesh/pubsub"
)

// SubmitResult records the output of an execution and fans the result out to
// every matching result-listener. The ledger transition is the gate: an
// unknown id, an already-terminal execution or an undeclared output key is
// rejected before any listener sees anything. On success the execution id is
// echoed back; fan-out delivery stays best effort per subscriber and never
// fails the submitting service.
func (c *Core) SubmitResult(ctx context.Context, executionID, outputKey string, outputs []byte) (string, error) {
	exec, err := c.ledger.Complete(executionID, outputKey, outputs)
	if err != nil {
		return "", err
	}

	res := pubsub.Result{
		ExecutionID: exec.ID,
		ServiceID:   exec.ServiceID,
		TaskKey:     exec.TaskKey,
		OutputKey:   outputKey,
		Outputs:     outputs,
		Tags:        exec.Tags,
		Timestamp:   stamp(),
	}
	c.bus.Topic(exec.ServiceID).PublishResult(res)

	if c.relay != nil {
		if rerr := c.relay.RelayResult(res); rerr != nil {
			slog.Warn("result relay failed", slogx.ExecutionID(exec.ID), slogx.Error(rerr))
		}
	}

	slog.Debug("result accepted",
		slogx.ExecutionID(exec.ID), slogx.ServiceID(exec.ServiceID), slog.String("output", outputKey))
	return exec.ID, nil
}

// EmitEvent fans a service event out to every matching event-listener.
// Fire-and-forget: absence of listeners is not an error, and a listener
// subscribing afterwards never observes this emission.
func (c *Core) EmitEvent(ctx context.Context, serviceID, eventKey string, data []byte) error {
	def, ok := c.defs.Get(serviceID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownService, serviceID)
	}
	if _, ok := def.Event(eventKey); !ok {
		return fmt.Errorf("%w: %s/%s", ErrUnknownEvent, serviceID, eventKey)
	}

	ev := pubsub.Event{
		ServiceID: serviceID,
		EventKey:  eventKey,
		Data:      data,
		Timestamp: stamp(),
	}
	c.bus.Topic(serviceID).PublishEvent(ev)

	if c.relay != nil {
		if rerr := c.relay.RelayEvent(ev); rerr != nil {
			slog.Warn("event relay failed", slogx.ServiceID(serviceID), slogx.Error(rerr))
		}
	}
	return nil
}
