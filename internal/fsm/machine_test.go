package fsm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testEvent string

func (e testEvent) EventName() string { return string(e) }

func TestRegisterAndStart(t *testing.T) {
	m := New()
	entered := 0
	require.NoError(t, m.Register(&State{
		Name:    "idle",
		OnEnter: func(ctx Context) Step { entered++; return Stay() },
	}))
	require.ErrorIs(t, m.Register(&State{Name: "idle"}), ErrDuplicateState)

	require.ErrorIs(t, m.Start("missing", nil), ErrUnknownState)
	require.NoError(t, m.Start("idle", nil))
	require.Equal(t, StateName("idle"), m.Current())
	require.Equal(t, 1, entered)

	require.ErrorIs(t, m.Start("idle", nil), ErrAlreadyStarted)
	require.ErrorIs(t, m.Register(&State{Name: "late"}), ErrAlreadyStarted)
}

func TestEventDrivesTransition(t *testing.T) {
	m := New()
	var exits, enters []StateName
	require.NoError(t, m.Register(&State{
		Name: "a",
		OnEvent: func(ctx Context, ev Event) Step {
			if ev.EventName() == "go" {
				return TransitionTo("b")
			}
			return Stay()
		},
		OnExit: func(ctx Context) { exits = append(exits, "a") },
	}))
	require.NoError(t, m.Register(&State{
		Name:    "b",
		OnEnter: func(ctx Context) Step { enters = append(enters, "b"); return Stay() },
	}))

	var transitions [][2]StateName
	m.AddTransitionListener(func(from, to StateName) {
		transitions = append(transitions, [2]StateName{from, to})
	})

	require.NoError(t, m.Start("a", nil))
	m.Submit(testEvent("noop"))
	m.Submit(testEvent("go"))
	require.NoError(t, m.Process(nil, time.Now()))

	require.Equal(t, StateName("b"), m.Current())
	require.Equal(t, []StateName{"a"}, exits)
	require.Equal(t, []StateName{"b"}, enters)
	// initial start plus one realized transition
	require.Equal(t, [][2]StateName{{"", "a"}, {"a", "b"}}, transitions)
}

func TestEnterChainsTransitions(t *testing.T) {
	m := New()
	require.NoError(t, m.Register(&State{
		Name:    "a",
		OnEvent: func(ctx Context, ev Event) Step { return TransitionTo("b") },
	}))
	require.NoError(t, m.Register(&State{
		Name:    "b",
		OnEnter: func(ctx Context) Step { return TransitionTo("c") },
	}))
	require.NoError(t, m.Register(&State{Name: "c"}))

	require.NoError(t, m.Start("a", nil))
	m.Submit(testEvent("go"))
	require.NoError(t, m.Process(nil, time.Now()))
	require.Equal(t, StateName("c"), m.Current())
}

func TestTransitionLoopIsFatal(t *testing.T) {
	m := New()
	require.NoError(t, m.Register(&State{
		Name:    "ping",
		OnEnter: func(ctx Context) Step { return TransitionTo("pong") },
		OnEvent: func(ctx Context, ev Event) Step { return TransitionTo("pong") },
	}))
	require.NoError(t, m.Register(&State{
		Name:    "pong",
		OnEnter: func(ctx Context) Step { return TransitionTo("ping") },
	}))

	err := m.Start("ping", nil)
	require.True(t, errors.Is(err, ErrTransitionLoop), "got %v", err)
}

func TestSubmitCallbackRunsAfterDrain(t *testing.T) {
	m := New()
	order := []string{}
	require.NoError(t, m.Register(&State{
		Name: "a",
		OnEvent: func(ctx Context, ev Event) Step {
			order = append(order, "handle:"+ev.EventName())
			return Stay()
		},
	}))
	require.NoError(t, m.Start("a", nil))

	m.Submit(testEvent("one"), func() { order = append(order, "done:one") })
	m.Submit(testEvent("two"))
	require.NoError(t, m.Process(nil, time.Now()))
	require.Equal(t, []string{"handle:one", "done:one", "handle:two"}, order)
}

func TestUnknownTransitionTargetIsFatal(t *testing.T) {
	m := New()
	require.NoError(t, m.Register(&State{
		Name:    "a",
		OnEvent: func(ctx Context, ev Event) Step { return TransitionTo("nowhere") },
	}))
	require.NoError(t, m.Start("a", nil))
	m.Submit(testEvent("go"))
	require.ErrorIs(t, m.Process(nil, time.Now()), ErrUnknownState)
}

func TestUpdateHookRuns(t *testing.T) {
	m := New()
	var seen time.Time
	require.NoError(t, m.Register(&State{
		Name: "a",
		OnUpdate: func(ctx Context, now time.Time) Step {
			seen = now
			return Stay()
		},
	}))
	require.NoError(t, m.Start("a", nil))
	now := time.Unix(1234, 0)
	require.NoError(t, m.Process(nil, now))
	require.Equal(t, now, seen)
}

func TestProcessBeforeStart(t *testing.T) {
	m := New()
	require.ErrorIs(t, m.Process(nil, time.Now()), ErrNotStarted)
}
