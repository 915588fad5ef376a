// Package broker distributes conversation events between agents, tools
// and observers through named topics.
//
// Two implementations share one Topic contract: Local fans events out
// in-process through buffered channels with a slow-subscriber timeout,
// and NATS moves them across processes using the wire codec from the
// events package. Subscribers attach an events.Hook; the broker
// translates each event into the matching hook callback.
//
// Subscriptions are explicit: Subscribe returns a Subscription whose
// Unsubscribe must be called for cleanup, and the subscriber's context
// cancels delivery as well.
package broker
