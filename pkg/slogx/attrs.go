// Package slogx carries small helpers for building log/slog attributes with
// consistent keys across the broker.
package slogx

import "log/slog"

// Error returns a slog.Attr with the key "error" and the error's message.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// ServiceID returns a slog.Attr identifying the service a log line concerns.
func ServiceID(sid string) slog.Attr {
	return slog.String("service", sid)
}

// ExecutionID returns a slog.Attr identifying an execution.
func ExecutionID(id string) slog.Attr {
	return slog.String("execution", id)
}

// TaskKey returns a slog.Attr for a task key.
func TaskKey(key string) slog.Attr {
	return slog.String("task", key)
}

// EventKey returns a slog.Attr for an event key.
func EventKey(key string) slog.Attr {
	return slog.String("event", key)
}
