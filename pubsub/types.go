package pubsub

import (
	"errors"

	"github.com/go-openapi/strfmt"
)

var (
	// ErrClosed reports a push to a subscription that has been unsubscribed
	// or whose context was cancelled.
	ErrClosed = errors.New("subscription closed")
	// ErrSlowSubscriber reports a subscriber whose buffer stayed full past
	// the slow-subscriber timeout.
	ErrSlowSubscriber = errors.New("slow subscriber")
)

// TaskRequest is the message delivered to exactly one task-listener of a
// service when an execution is dispatched.
type TaskRequest struct {
	ExecutionID string          `json:"executionID"`
	TaskKey     string          `json:"taskKey"`
	Inputs      []byte          `json:"inputs,omitempty"`
	Timestamp   strfmt.DateTime `json:"timestamp,omitempty"`
}

// Result is the message fanned out to matching result-listeners after an
// execution completes.
type Result struct {
	ExecutionID string          `json:"executionID"`
	ServiceID   string          `json:"serviceID"`
	TaskKey     string          `json:"taskKey"`
	OutputKey   string          `json:"outputKey"`
	Outputs     []byte          `json:"outputs,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Timestamp   strfmt.DateTime `json:"timestamp,omitempty"`
}

// Event is the message fanned out to matching event-listeners when a service
// emits an event. Events are fire-and-forget and never correlate to an
// execution.
type Event struct {
	ServiceID string          `json:"serviceID"`
	EventKey  string          `json:"eventKey"`
	Data      []byte          `json:"data,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}
