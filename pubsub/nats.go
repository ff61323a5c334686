package pubsub

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
)

const DefaultSubjectPrefix = "taskmesh"

// NATSRelay republishes completed results and emitted events to NATS so
// consumers outside the broker process can observe fan-out. Subjects are
// <prefix>.<serviceID>.result and <prefix>.<serviceID>.event, carrying the
// wire encoding from wire.go. The relay is write-only and best effort:
// in-process delivery never depends on it.
type NATSRelay struct {
	client *nats.Conn
	prefix string
}

func NewNATSRelay(client *nats.Conn) *NATSRelay {
	return &NATSRelay{client: client, prefix: DefaultSubjectPrefix}
}

// WithSubjectPrefix overrides the subject prefix.
func (r *NATSRelay) WithSubjectPrefix(prefix string) *NATSRelay {
	r.prefix = prefix
	return r
}

// RelayResult publishes a result message on the service's result subject.
func (r *NATSRelay) RelayResult(res Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return r.client.Publish(fmt.Sprintf("%s.%s.result", r.prefix, res.ServiceID), data)
}

// RelayEvent publishes an event message on the service's event subject.
func (r *NATSRelay) RelayEvent(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.client.Publish(fmt.Sprintf("%s.%s.event", r.prefix, ev.ServiceID), data)
}
