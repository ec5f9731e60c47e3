package statemachine

import "fmt"

// Option configures a state machine during construction.
type Option func(*Machine) error

// TransitionOption configures a single transition.
type TransitionOption func(*transitionConfig)

type transitionConfig struct {
	guards  []Guard
	actions []Action
}

// New creates a state machine starting in initial.
func New(initial State, opts ...Option) (StateMachine, error) {
	if initial == nil {
		return nil, fmt.Errorf("initial state cannot be nil")
	}
	m := newMachine(initial)
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is like New but panics on a misconfigured transition table.
func MustNew(initial State, opts ...Option) StateMachine {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

// WithTransition registers from --event--> to.
func WithTransition(from, to State, event Event, opts ...TransitionOption) Option {
	return func(m *Machine) error {
		cfg := &transitionConfig{}
		for _, opt := range opts {
			opt(cfg)
		}
		return m.AddTransition(from, to, event, cfg.guards, cfg.actions)
	}
}

// WithTransitionFrom registers the same event and target for several source
// states, e.g. a teardown event accepted everywhere.
func WithTransitionFrom(from []State, to State, event Event, opts ...TransitionOption) Option {
	return func(m *Machine) error {
		for _, f := range from {
			if err := WithTransition(f, to, event, opts...)(m); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithListener registers a callback invoked after every successful transition.
func WithListener(l Listener) Option {
	return func(m *Machine) error {
		if l != nil {
			m.listeners = append(m.listeners, l)
		}
		return nil
	}
}

func WithGuard(guard Guard) TransitionOption {
	return func(cfg *transitionConfig) {
		if guard != nil {
			cfg.guards = append(cfg.guards, guard)
		}
	}
}

func WithAction(action Action) TransitionOption {
	return func(cfg *transitionConfig) {
		if action != nil {
			cfg.actions = append(cfg.actions, action)
		}
	}
}
