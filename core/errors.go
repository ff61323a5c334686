package core

import "errors"

var (
	// ErrUnknownService means no service with the given sid is registered.
	ErrUnknownService = errors.New("unknown service")
	// ErrUnknownTask means the service declares no task with the given key.
	ErrUnknownTask = errors.New("unknown task")
	// ErrUnknownEvent means the service declares no event with the given key.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrNoListener means no task-listener stream was available to take the
	// execution; the execution is recorded failed, never retried.
	ErrNoListener = errors.New("no task listener for service")
	// ErrUnauthorized means the listen token does not match any service
	// session.
	ErrUnauthorized = errors.New("unauthorized")
)
