// Package fsm provides a small reusable finite-state-machine engine.
//
// States are plain behavior records registered under a name; events are
// queued by Submit and drained in FIFO order by Process, which also drives
// the active state's periodic update hook. Handlers return a Step that
// either stays in place or requests a transition to another named state.
package fsm

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// StateName identifies a registered state.
type StateName string

// Event is an input delivered to the active state's OnEvent hook.
type Event interface {
	EventName() string
}

// Context is the machine-owner state threaded through every hook.
type Context any

// Step is a handler result: stay in place or move to another state.
type Step struct {
	next       StateName
	transition bool
}

// Stay keeps the machine in its current state.
func Stay() Step { return Step{} }

// TransitionTo requests a transition to the named state.
func TransitionTo(name StateName) Step { return Step{next: name, transition: true} }

// State bundles the lifecycle hooks for one named state. Nil hooks are
// skipped. OnEnter and OnUpdate may request a follow-up transition.
type State struct {
	Name     StateName
	OnEnter  func(ctx Context) Step
	OnExit   func(ctx Context)
	OnUpdate func(ctx Context, now time.Time) Step
	OnEvent  func(ctx Context, ev Event) Step
}

// TransitionListener observes every realized transition, after the state
// swap. from is empty for the initial Start.
type TransitionListener func(from, to StateName)

var (
	ErrNotStarted     = errors.New("fsm: machine not started")
	ErrAlreadyStarted = errors.New("fsm: machine already started")
	ErrUnknownState   = errors.New("fsm: unknown state")
	ErrDuplicateState = errors.New("fsm: duplicate state")
	// ErrTransitionLoop guards against enter hooks that chain transitions
	// forever; hitting it is a fatal configuration error.
	ErrTransitionLoop = errors.New("fsm: transition chain exceeded limit")
)

// maxChainedTransitions caps how many transitions one trigger may chain.
const maxChainedTransitions = 16

type pendingEvent struct {
	ev   Event
	done func()
}

// Machine drives one set of registered states. Submit is safe for
// concurrent use; Register, Start and Process must be serialized by the
// caller (one processing slot per machine).
type Machine struct {
	states    map[StateName]*State
	listeners []TransitionListener

	mu    sync.Mutex
	queue []pendingEvent

	current *State
	started bool
}

func New() *Machine {
	return &Machine{states: make(map[StateName]*State)}
}

// Register adds a state. All states must be registered before Start.
func (m *Machine) Register(st *State) error {
	if st == nil || st.Name == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownState)
	}
	if m.started {
		return ErrAlreadyStarted
	}
	if _, ok := m.states[st.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateState, st.Name)
	}
	m.states[st.Name] = st
	return nil
}

// AddTransitionListener registers a module-wide transition observer.
func (m *Machine) AddTransitionListener(l TransitionListener) {
	if l != nil {
		m.listeners = append(m.listeners, l)
	}
}

// Current returns the active state name, or "" before Start.
func (m *Machine) Current() StateName {
	if m.current == nil {
		return ""
	}
	return m.current.Name
}

// Start activates the initial state and runs its enter hook. Enter results
// may immediately chain further transitions.
func (m *Machine) Start(initial StateName, ctx Context) error {
	if m.started {
		return ErrAlreadyStarted
	}
	st, ok := m.states[initial]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownState, initial)
	}
	m.started = true
	m.current = st
	for _, l := range m.listeners {
		l("", st.Name)
	}
	if st.OnEnter != nil {
		if err := m.applyTransition(st.OnEnter(ctx), ctx); err != nil {
			return err
		}
	}
	return nil
}

// Submit enqueues an event for the next Process pass. The optional done
// callback runs synchronously right after that event is drained.
func (m *Machine) Submit(ev Event, done ...func()) {
	if ev == nil {
		return
	}
	p := pendingEvent{ev: ev}
	if len(done) > 0 {
		p.done = done[0]
	}
	m.mu.Lock()
	m.queue = append(m.queue, p)
	m.mu.Unlock()
}

// Process drains queued events in FIFO order through the active state and
// then invokes its periodic update hook with now.
func (m *Machine) Process(ctx Context, now time.Time) error {
	if !m.started {
		return ErrNotStarted
	}
	for {
		p, ok := m.pop()
		if !ok {
			break
		}
		if m.current.OnEvent != nil {
			if err := m.applyTransition(m.current.OnEvent(ctx, p.ev), ctx); err != nil {
				if p.done != nil {
					p.done()
				}
				return err
			}
		}
		if p.done != nil {
			p.done()
		}
	}
	if m.current.OnUpdate != nil {
		if err := m.applyTransition(m.current.OnUpdate(ctx, now), ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) pop() (pendingEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return pendingEvent{}, false
	}
	p := m.queue[0]
	m.queue = m.queue[1:]
	return p, true
}

// applyTransition realizes a requested transition, looping while enter
// hooks keep requesting further moves.
func (m *Machine) applyTransition(step Step, ctx Context) error {
	for hops := 0; step.transition; hops++ {
		if hops >= maxChainedTransitions {
			return fmt.Errorf("%w: stuck at %s", ErrTransitionLoop, m.current.Name)
		}
		next, ok := m.states[step.next]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownState, step.next)
		}
		if next == m.current {
			return nil
		}
		from := m.current.Name
		if m.current.OnExit != nil {
			m.current.OnExit(ctx)
		}
		m.current = next
		for _, l := range m.listeners {
			l(from, next.Name)
		}
		step = Stay()
		if next.OnEnter != nil {
			step = next.OnEnter(ctx)
		}
	}
	return nil
}
