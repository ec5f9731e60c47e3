package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Machine is a thread-safe in-memory state machine. Transitions are indexed
// as [from][event] and evaluated in registration order; the first one whose
// guards pass wins, which allows guard-based branching.
type Machine struct {
	initial     State
	current     State
	transitions map[string]map[string][]Transition
	listeners   []Listener
	mu          sync.RWMutex
}

func newMachine(initial State) *Machine {
	return &Machine{
		initial:     initial,
		current:     initial,
		transitions: make(map[string]map[string][]Transition),
	}
}

func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the machine is in state.
func (m *Machine) Is(state State) bool {
	if state == nil {
		return false
	}
	return m.Current().Name() == state.Name()
}

func (m *Machine) AddTransition(from, to State, event Event, guards []Guard, actions []Action) error {
	if from == nil || to == nil || event == nil {
		return ErrInvalidTransition
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	byEvent, ok := m.transitions[from.Name()]
	if !ok {
		byEvent = make(map[string][]Transition)
		m.transitions[from.Name()] = byEvent
	}
	byEvent[event.Name()] = append(byEvent[event.Name()], Transition{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  guards,
		Actions: actions,
	})
	return nil
}

// Fire applies event. Listeners run after the lock is released.
func (m *Machine) Fire(ctx context.Context, event Event, data any) error {
	if event == nil {
		return ErrInvalidEvent
	}

	m.mu.Lock()
	from := m.current
	t, err := m.match(ctx, event, data)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	for _, action := range t.Actions {
		if err := action(ctx, from, t.To, event, data); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("action failed: %w", err)
		}
	}
	m.current = t.To
	listeners := m.listeners
	m.mu.Unlock()

	for _, l := range listeners {
		l(ctx, from, t.To, event)
	}
	return nil
}

func (m *Machine) CanFire(ctx context.Context, event Event, data any) bool {
	if event == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, err := m.match(ctx, event, data)
	return err == nil
}

func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
	return nil
}

// Must be called with the lock held.
func (m *Machine) match(ctx context.Context, event Event, data any) (*Transition, error) {
	from := m.current.Name()
	candidates := m.transitions[from][event.Name()]
	if len(candidates) == 0 {
		return nil, transitionError(ErrNoTransitionAvailable, from, event.Name())
	}

candidates:
	for i := range candidates {
		for _, guard := range candidates[i].Guards {
			if !guard(ctx, m.current, event, data) {
				continue candidates
			}
		}
		return &candidates[i], nil
	}
	return nil, transitionError(ErrTransitionRejected, from, event.Name())
}
