package core

import (
	"time"

	"github.com/fogfish/opts"
	"github.com/go-openapi/strfmt"
	"github.com/taskmesh/taskmesh/execution"
	"github.com/taskmesh/taskmesh/internal/registry"
	"github.com/taskmesh/taskmesh/pkg/uuidx"
	"github.com/taskmesh/taskmesh/pubsub"
	"github.com/taskmesh/taskmesh/service"
)

const defaultRetention = 5 * time.Minute

// Relay mirrors completed results and emitted events to an external system,
// for observers outside the broker process. Relay failures are logged and
// never affect in-process delivery or the caller's success response.
type Relay interface {
	RelayResult(pubsub.Result) error
	RelayEvent(pubsub.Event) error
}

// Core wires the execution ledger, the subscription registry and the
// service catalog into the broker's public operations.
type Core struct {
	slowSubscriberTimeout time.Duration
	subscriberBuffer      int
	retention             time.Duration
	pendingTimeout        time.Duration
	strategy              DispatchStrategy
	relay                 Relay

	defs     registry.Registry[*service.Definition]
	sessions registry.Registry[string]
	ledger   *execution.Ledger
	bus      *pubsub.Bus
}

var (
	// WithSlowSubscriberTimeout configures how long fan-out waits on a full
	// subscriber buffer before dropping the subscriber.
	WithSlowSubscriberTimeout = opts.ForName[Core, time.Duration]("slowSubscriberTimeout")

	// WithSubscriberBuffer configures the per-subscriber channel capacity.
	WithSubscriberBuffer = opts.ForName[Core, int]("subscriberBuffer")

	// WithRetention configures how long terminal ledger entries are kept
	// before garbage collection. Zero keeps them for the process lifetime.
	WithRetention = opts.ForName[Core, time.Duration]("retention")

	// WithPendingTimeout marks executions failed when no result arrives
	// within the window. Zero (the default) disables the timeout: an
	// execution whose service disconnects stays pending until retention
	// claims it.
	WithPendingTimeout = opts.ForName[Core, time.Duration]("pendingTimeout")

	// WithDispatchStrategy overrides how one task-listener is picked among
	// several instances of a service. Defaults to round-robin.
	WithDispatchStrategy = opts.ForName[Core, DispatchStrategy]("strategy")

	// WithRelay installs an external relay for results and events.
	WithRelay = opts.ForName[Core, Relay]("relay")
)

// New builds a broker core. Multiple cores can coexist in one process; each
// owns its own ledger and registry.
func New(options ...opts.Option[Core]) (*Core, error) {
	c := &Core{
		retention: defaultRetention,
		strategy:  RoundRobin(),
	}
	if err := opts.Apply(c, options); err != nil {
		return nil, err
	}

	c.defs = registry.New[*service.Definition]()
	c.sessions = registry.New[string]()
	c.ledger = execution.NewLedger(c.retention, c.pendingTimeout)

	c.bus = pubsub.NewBus()
	if c.slowSubscriberTimeout > 0 {
		c.bus.WithSlowSubscriberTimeout(c.slowSubscriberTimeout)
	}
	if c.subscriberBuffer > 0 {
		c.bus.WithSubscriberBuffer(c.subscriberBuffer)
	}
	return c, nil
}

// RegisterService adds the service's task and event declarations to the
// catalog and opens a session, returning the token its task-listener streams
// authenticate with. Registering the same sid again (another instance of the
// same service) yields a fresh token; instances then share dispatches as a
// worker pool.
func (c *Core) RegisterService(def *service.Definition) (string, error) {
	if err := def.Validate(); err != nil {
		return "", err
	}
	c.defs.Put(def.Sid, def)

	token := uuidx.NewString()
	c.sessions.Put(token, def.Sid)
	return token, nil
}

// DeregisterService closes the session for the given token. Streams opened
// with the token stay up until their own contexts end.
func (c *Core) DeregisterService(token string) {
	c.sessions.Delete(token)
}

// Ledger exposes read access to executions, mainly for inspection and tests.
func (c *Core) Ledger() *execution.Ledger {
	return c.ledger
}

// Shutdown ends every open listener stream. In-flight executions are left in
// the ledger untouched.
func (c *Core) Shutdown() {
	c.bus.Close()
}

func stamp() strfmt.DateTime {
	return strfmt.DateTime(time.Now().UTC())
}
