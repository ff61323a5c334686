package execution

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/taskmesh/taskmesh/pkg/uuidx"
)

var (
	// ErrNotFound means no execution exists with the given id.
	ErrNotFound = errors.New("execution not found")
	// ErrAlreadyCompleted means the execution already reached a terminal
	// status; a second result submission is rejected, never overwrites.
	ErrAlreadyCompleted = errors.New("execution already completed")
	// ErrInvalidOutputKey means the submitted output key is not among the
	// task's declared outputs.
	ErrInvalidOutputKey = errors.New("invalid output key")
)

// Ledger holds every live execution. Entries are created by the dispatcher,
// completed or failed exactly once, and garbage-collected a retention window
// after reaching a terminal status. A zero retention keeps terminal entries
// for the process lifetime; a zero pending timeout leaves orphaned pending
// executions pending until they are completed or the process exits.
type Ledger struct {
	entries        *haxmap.Map[string, *entry]
	retention      time.Duration
	pendingTimeout time.Duration
}

type entry struct {
	mu             sync.Mutex
	exec           Execution
	allowedOutputs []string
	timeout        *time.Timer
}

func NewLedger(retention, pendingTimeout time.Duration) *Ledger {
	return &Ledger{
		entries:        haxmap.New[string, *entry](),
		retention:      retention,
		pendingTimeout: pendingTimeout,
	}
}

// Create records a new pending execution and returns a snapshot of it. The
// assigned id is unique across the process lifetime. outputKeys is the set
// of output keys Complete will accept for this execution.
func (l *Ledger) Create(serviceID, taskKey string, inputs []byte, tags []string, outputKeys []string) Execution {
	e := &entry{
		exec: Execution{
			ID:        uuidx.NewString(),
			ServiceID: serviceID,
			TaskKey:   taskKey,
			Inputs:    inputs,
			Tags:      tags,
			Status:    Pending,
			CreatedAt: now(),
		},
		allowedOutputs: outputKeys,
	}
	l.entries.Set(e.exec.ID, e)

	if l.pendingTimeout > 0 {
		id := e.exec.ID
		e.timeout = time.AfterFunc(l.pendingTimeout, func() {
			//nolint:errcheck // already terminal is the expected race here
			l.Fail(id, "timed out waiting for a result")
		})
	}
	return e.exec
}

// Complete transitions the execution to completed and records its output.
// The pending → completed transition is atomic: under concurrent submissions
// for the same id exactly one caller wins and every other caller gets
// ErrAlreadyCompleted. An undeclared output key leaves the entry pending.
func (l *Ledger) Complete(id, outputKey string, outputs []byte) (Execution, error) {
	e, ok := l.entries.Get(id)
	if !ok {
		return Execution{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.exec.Status.Terminal() {
		return Execution{}, fmt.Errorf("%w: %s", ErrAlreadyCompleted, id)
	}
	if !e.allows(outputKey) {
		return Execution{}, fmt.Errorf("%w: task %s declares no output %q", ErrInvalidOutputKey, e.exec.TaskKey, outputKey)
	}

	e.exec.Status = Completed
	e.exec.OutputKey = outputKey
	e.exec.Outputs = outputs
	e.exec.EndedAt = now()
	e.settle(l, id)
	return e.exec, nil
}

// Fail transitions the execution to failed with the given reason. Like
// Complete it succeeds at most once per execution.
func (l *Ledger) Fail(id, reason string) (Execution, error) {
	e, ok := l.entries.Get(id)
	if !ok {
		return Execution{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.exec.Status.Terminal() {
		return Execution{}, fmt.Errorf("%w: %s", ErrAlreadyCompleted, id)
	}

	e.exec.Status = Failed
	e.exec.Failure = reason
	e.exec.EndedAt = now()
	e.settle(l, id)
	return e.exec, nil
}

// Get returns a snapshot of the execution with the given id.
func (l *Ledger) Get(id string) (Execution, error) {
	e, ok := l.entries.Get(id)
	if !ok {
		return Execution{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exec, nil
}

// Len returns the number of entries currently held, terminal ones included.
func (l *Ledger) Len() int {
	return int(l.entries.Len())
}

// ForEach visits a snapshot of every held execution. Stops early when visit
// returns false.
func (l *Ledger) ForEach(visit func(Execution) bool) {
	l.entries.ForEach(func(_ string, e *entry) bool {
		e.mu.Lock()
		exec := e.exec
		e.mu.Unlock()
		return visit(exec)
	})
}

func (e *entry) allows(outputKey string) bool {
	for _, key := range e.allowedOutputs {
		if key == outputKey {
			return true
		}
	}
	return false
}

// settle stops the pending timer and schedules garbage collection. Caller
// holds e.mu and has already moved the entry to a terminal status.
func (e *entry) settle(l *Ledger, id string) {
	if e.timeout != nil {
		e.timeout.Stop()
		e.timeout = nil
	}
	if l.retention > 0 {
		time.AfterFunc(l.retention, func() { l.entries.Del(id) })
	}
}
