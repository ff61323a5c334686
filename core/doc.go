// Package core is the broker's execution-correlation engine. It accepts
// task-execution requests from applications, routes each one to exactly one
// connected instance of the target service, accepts the eventual result and
// fans it out to subscribed result-listeners, and fans service-emitted
// events out to event-listeners.
//
// A Core owns the two pieces of shared mutable state, the execution ledger
// and the subscription registry, and scopes them to its own lifetime:
// construct with New, tear down with Shutdown. Nothing is durable; results
// and events published while no matching listener is subscribed are lost,
// which is the documented contract.
package core
