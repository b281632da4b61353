package game

import "time"

// Session events are immutable value records; they carry identity and
// timestamps, never references into session state.

// ReadyEvent signals that a lobby participant is ready to start.
type ReadyEvent struct {
	UserID    string
	RequestID string
	At        time.Time
}

func (ReadyEvent) EventName() string { return "ready" }

// MoveEvent is a stone placement request.
type MoveEvent struct {
	UserID    string
	X, Y      int
	RequestID string
	At        time.Time
}

func (MoveEvent) EventName() string { return "move" }

// TimeoutEvent is injected by the turn timeout coordinator when the
// expected action's window elapses.
type TimeoutEvent struct {
	ExpectedAction int
	At             time.Time
}

func (TimeoutEvent) EventName() string { return "turn_timeout" }

// DecisionEvent carries one participant's post-game choice.
type DecisionEvent struct {
	UserID    string
	Rematch   bool
	RequestID string
	At        time.Time
}

func (DecisionEvent) EventName() string { return "post_game_decision" }

// DecisionTimeoutEvent closes the decision window; non-responders
// default to leaving.
type DecisionTimeoutEvent struct {
	TriggerAt time.Time
}

func (DecisionTimeoutEvent) EventName() string { return "decision_timeout" }

// DisconnectEvent marks a participant's connection as gone.
type DisconnectEvent struct {
	UserID string
	At     time.Time
}

func (DisconnectEvent) EventName() string { return "disconnect" }
