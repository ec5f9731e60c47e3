// Package statemachine implements a small thread-safe finite state machine.
//
// States and events are interfaces with a Name method; StringState and
// StringEvent cover the common case. Transitions are registered with New and
// WithTransition. Several transitions may share a source state and event:
// they are tried in registration order and the first one whose guards pass
// wins.
//
//	sm := statemachine.MustNew(Idle,
//	    statemachine.WithTransition(Idle, Loading, Load),
//	    statemachine.WithTransition(Loading, Ready, Loaded),
//	    statemachine.WithTransitionFrom([]statemachine.State{Idle, Loading, Ready}, Closed, Close),
//	    statemachine.WithListener(func(ctx context.Context, from, to statemachine.State, _ statemachine.Event) {
//	        log.InfoContext(ctx, "state changed", logger.Transition(from.Name(), to.Name()))
//	    }),
//	)
//
// Fire returns ErrNoTransitionAvailable when the current state does not accept
// the event and ErrTransitionRejected when every candidate was vetoed by a
// guard. Actions run before the state changes and can abort it; listeners run
// after and cannot.
package statemachine
