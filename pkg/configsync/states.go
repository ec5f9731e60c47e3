package configsync

import (
	"context"

	"github.com/dmitrymomot/tenantsync/pkg/statemachine"
)

// Session lifecycle states.
var (
	StateUninitialized = statemachine.StringState("uninitialized")
	StateLoading       = statemachine.StringState("loading")
	StateReady         = statemachine.StringState("ready")
	StateStale         = statemachine.StringState("stale")
	StateError         = statemachine.StringState("error")
	StateDestroyed     = statemachine.StringState("destroyed")
)

// Triggers that move a session between states.
var (
	TriggerLoad          = statemachine.StringEvent("load")
	TriggerLoaded        = statemachine.StringEvent("loaded")
	TriggerStaleDetected = statemachine.StringEvent("stale_detected")
	TriggerAdopted       = statemachine.StringEvent("adopted")
	TriggerFailed        = statemachine.StringEvent("failed")
	TriggerRetry         = statemachine.StringEvent("retry")
	TriggerDestroy       = statemachine.StringEvent("destroy")
)

// caughtUp guards TriggerLoaded out of loading, stale and error. The data
// passed to Fire reports whether the new snapshot matches the remote
// fingerprint.
func caughtUp(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	ok, _ := data.(bool)
	return ok
}

func newMachine(listener statemachine.Listener) statemachine.StateMachine {
	live := []statemachine.State{StateUninitialized, StateLoading, StateReady, StateStale, StateError}

	return statemachine.MustNew(StateUninitialized,
		statemachine.WithTransition(StateUninitialized, StateLoading, TriggerLoad),
		statemachine.WithTransition(StateLoading, StateReady, TriggerLoaded, statemachine.WithGuard(caughtUp)),
		statemachine.WithTransition(StateLoading, StateStale, TriggerLoaded),
		statemachine.WithTransition(StateReady, StateReady, TriggerLoaded),
		statemachine.WithTransition(StateStale, StateReady, TriggerLoaded, statemachine.WithGuard(caughtUp)),
		statemachine.WithTransition(StateStale, StateStale, TriggerLoaded),
		statemachine.WithTransition(StateError, StateReady, TriggerLoaded, statemachine.WithGuard(caughtUp)),
		statemachine.WithTransition(StateError, StateStale, TriggerLoaded),

		statemachine.WithTransition(StateReady, StateStale, TriggerStaleDetected),
		statemachine.WithTransition(StateStale, StateStale, TriggerStaleDetected),
		statemachine.WithTransition(StateError, StateError, TriggerStaleDetected),

		statemachine.WithTransitionFrom([]statemachine.State{StateReady, StateStale, StateError}, StateReady, TriggerAdopted),

		statemachine.WithTransitionFrom([]statemachine.State{StateLoading, StateReady, StateStale, StateError}, StateError, TriggerFailed),
		statemachine.WithTransition(StateError, StateLoading, TriggerRetry),

		statemachine.WithTransitionFrom(live, StateDestroyed, TriggerDestroy),
		statemachine.WithListener(listener),
	)
}
