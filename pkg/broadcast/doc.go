// Package broadcast provides a generic, non-blocking fan-out of messages to
// subscribers.
//
// MemoryBroadcaster is the in-process implementation. Each subscriber owns a
// buffered channel; a subscriber that falls behind misses messages instead of
// slowing the publisher down. Subscriptions end when their context is
// cancelled, when Close is called on them, or when the broadcaster closes.
//
//	b := broadcast.NewMemoryBroadcaster[Event](16)
//	sub := b.Subscribe(ctx)
//	for msg := range sub.Receive(ctx) {
//	    handle(msg.Data)
//	}
package broadcast
