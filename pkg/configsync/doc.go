// Package configsync keeps a tenant's configuration in sync for long-lived
// consumers such as a storefront tab or an edge worker.
//
// A Session is opened for one tenant and holds an immutable snapshot. Two
// timers drive it: a periodic refresh that replaces the snapshot through
// Fetcher.Cached, and a staleness check that compares the remote
// fingerprint with the snapshot and only raises UpdateAvailable. The
// consumer decides when to Adopt the new version.
//
//	s, err := configsync.Open(ctx, fetcher, "acme")
//	if err != nil {
//		return err
//	}
//	defer s.Destroy()
//
//	sub := s.Subscribe(ctx)
//	for msg := range sub.Receive(ctx) {
//		if msg.Data.Kind == configsync.EventUpdateAvailable {
//			_, _ = s.Adopt(ctx)
//		}
//	}
//
// The lifecycle is a state machine: uninitialized, loading, ready, stale,
// error and destroyed. Overlapping calls of the same operation share a
// single fetch, and the session never runs two source calls at once. Timer
// ticks are skipped while any call is pending. After Destroy every
// operation returns ErrDestroyed and fetches still in flight leave the
// session untouched.
//
// Registry keeps one reference-counted session per tenant, bounded by an
// LRU, and can react to update notices published on Redis:
//
//	s, release, err := registry.Acquire(ctx, "acme")
//	if err != nil {
//		return err
//	}
//	defer release() // the last release destroys the session
package configsync
