package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid transition: from, to, or event cannot be nil")
	ErrInvalidEvent      = errors.New("invalid event: event cannot be nil")

	// ErrNoTransitionAvailable means the current state does not accept the event.
	ErrNoTransitionAvailable = errors.New("no transition available")
	// ErrTransitionRejected means every candidate transition was vetoed by a guard.
	ErrTransitionRejected = errors.New("transition rejected by guards")
)

func transitionError(kind error, state, event string) error {
	return fmt.Errorf("%w: state %q, event %q", kind, state, event)
}
