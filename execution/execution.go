// Package execution tracks task executions from creation to completion. The
// Ledger is the single authority for execution state: ids are assigned here,
// and the pending → completed/failed transition happens here exactly once.
package execution

import (
	"time"

	"github.com/go-openapi/strfmt"
)

// Status is the lifecycle state of an execution.
type Status string

const (
	Pending   Status = "pending"
	Completed Status = "completed"
	Failed    Status = "failed"
)

// Terminal reports whether the status admits no further transition.
func (s Status) Terminal() bool {
	return s == Completed || s == Failed
}

// Execution is one task invocation. The id is the sole correlation key
// between the execute request, the task-listener delivery, the submitted
// result and the result-listener delivery. Inputs and outputs are opaque
// payloads; the core forwards them verbatim.
type Execution struct {
	ID        string          `json:"id"`
	ServiceID string          `json:"serviceID"`
	TaskKey   string          `json:"taskKey"`
	Inputs    []byte          `json:"inputs,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
	Status    Status          `json:"status"`
	OutputKey string          `json:"outputKey,omitempty"`
	Outputs   []byte          `json:"outputs,omitempty"`
	Failure   string          `json:"failure,omitempty"`
	CreatedAt strfmt.DateTime `json:"createdAt"`
	EndedAt   strfmt.DateTime `json:"endedAt,omitempty"`
}

func now() strfmt.DateTime {
	return strfmt.DateTime(time.Now().UTC())
}
