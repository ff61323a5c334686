// Package pubsub implements the broker's in-process fan-out layer. Each
// service id maps to a topic holding three independent subscriber sets, one
// per listener kind (task, event, result). Publishing walks the current
// snapshot of a set, evaluates each subscriber's filter, and pushes into a
// per-subscriber buffered channel. A subscriber that cannot accept a message
// within the slow-subscriber timeout is unsubscribed rather than allowed to
// stall the publisher or its peers.
//
// Nothing here is durable: the set of subscriptions is process state, and a
// message published while no one is subscribed is gone. Clients are expected
// to subscribe first and re-subscribe after a disconnect.
package pubsub
