// Package service models the task and event descriptors a service declares
// when it registers with the broker. Descriptors are read-only to the core:
// the dispatcher checks task keys against them and the result intake checks
// output keys, nothing else. Parameter and output maps keep declaration
// order, matching the order the service wrote them in.
package service

import (
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Definition is the full declaration of a service: its stable id plus the
// tasks it can run and the events it can emit. Immutable once registered.
type Definition struct {
	Sid    string                                `json:"sid"`
	Name   string                                `json:"name,omitempty"`
	Tasks  *orderedmap.OrderedMap[string, Task]  `json:"tasks,omitempty"`
	Events *orderedmap.OrderedMap[string, Event] `json:"events,omitempty"`
}

// Task declares one executable task: its inputs and the named outputs it can
// produce. A task declares any number of outputs but an execution submits
// exactly one of them.
type Task struct {
	Key     string                                    `json:"key"`
	Inputs  *orderedmap.OrderedMap[string, Parameter] `json:"inputs,omitempty"`
	Outputs *orderedmap.OrderedMap[string, Output]    `json:"outputs,omitempty"`
}

// Output is one named result shape a task may produce.
type Output struct {
	Key  string                                    `json:"key"`
	Data *orderedmap.OrderedMap[string, Parameter] `json:"data,omitempty"`
}

// Event declares one event kind a service may emit.
type Event struct {
	Key  string                                    `json:"key"`
	Data *orderedmap.OrderedMap[string, Parameter] `json:"data,omitempty"`
}

// Parameter describes a single data field in a task input, task output or
// event payload. The core never validates payloads against parameters; they
// exist for clients and tooling.
type Parameter struct {
	Key      string `json:"key"`
	Type     string `json:"type"`
	Optional bool   `json:"optional,omitempty"`
}

// Task returns the declared task for key.
func (d *Definition) Task(key string) (Task, bool) {
	if d.Tasks == nil {
		return Task{}, false
	}
	return d.Tasks.Get(key)
}

// Event returns the declared event for key.
func (d *Definition) Event(key string) (Event, bool) {
	if d.Events == nil {
		return Event{}, false
	}
	return d.Events.Get(key)
}

// OutputKeys returns the task's declared output keys in declaration order.
func (t Task) OutputKeys() []string {
	if t.Outputs == nil {
		return nil
	}
	keys := make([]string, 0, t.Outputs.Len())
	for pair := t.Outputs.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// HasOutput reports whether key is among the task's declared outputs.
func (t Task) HasOutput(key string) bool {
	if t.Outputs == nil {
		return false
	}
	_, ok := t.Outputs.Get(key)
	return ok
}

// Validate checks the definition is complete enough to register: a sid, and
// every task/event keyed consistently with its map entry.
func (d *Definition) Validate() error {
	if d == nil {
		return errors.New("definition is required")
	}
	if d.Sid == "" {
		return errors.New("service sid is required")
	}
	if d.Tasks != nil {
		for pair := d.Tasks.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Key == "" {
				return fmt.Errorf("service %s: task with empty key", d.Sid)
			}
			if pair.Value.Key != "" && pair.Value.Key != pair.Key {
				return fmt.Errorf("service %s: task %q keyed as %q", d.Sid, pair.Value.Key, pair.Key)
			}
		}
	}
	if d.Events != nil {
		for pair := d.Events.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Key == "" {
				return fmt.Errorf("service %s: event with empty key", d.Sid)
			}
			if pair.Value.Key != "" && pair.Value.Key != pair.Key {
				return fmt.Errorf("service %s: event %q keyed as %q", d.Sid, pair.Value.Key, pair.Key)
			}
		}
	}
	return nil
}

// Tasks builds an ordered task map keyed by each task's key. Convenience for
// declaring definitions in code.
func Tasks(tasks ...Task) *orderedmap.OrderedMap[string, Task] {
	m := orderedmap.New[string, Task]()
	for _, t := range tasks {
		m.Set(t.Key, t)
	}
	return m
}

// Events builds an ordered event map keyed by each event's key.
func Events(events ...Event) *orderedmap.OrderedMap[string, Event] {
	m := orderedmap.New[string, Event]()
	for _, e := range events {
		m.Set(e.Key, e)
	}
	return m
}

// Outputs builds an ordered output map keyed by each output's key.
func Outputs(outputs ...Output) *orderedmap.OrderedMap[string, Output] {
	m := orderedmap.New[string, Output]()
	for _, o := range outputs {
		m.Set(o.Key, o)
	}
	return m
}

// Params builds an ordered parameter map keyed by each parameter's key.
func Params(params ...Parameter) *orderedmap.OrderedMap[string, Parameter] {
	m := orderedmap.New[string, Parameter]()
	for _, p := range params {
		m.Set(p.Key, p)
	}
	return m
}
