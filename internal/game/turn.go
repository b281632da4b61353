// Package game implements the per-session lifecycle: the state graph
// from lobby through the turn loop into the post-game decision flow,
// with move validation, outcome detection and timeout handling.
package game

import "time"

// Turn tracks the session's action counter and the current decision
// window. Action numbers start at 1 and increase by exactly one per
// completed action, accepted or forfeited.
type Turn struct {
	ActionNumber int
	Participants int
	StartedAt    time.Time
	EndsAt       time.Time
	// Wrapped marks that the last Advance rolled into a new round.
	Wrapped bool
}

// NewTurn starts the session clock at action 1. The decision window
// opens separately, when the waiting state is entered.
func NewTurn(participants int) *Turn {
	return &Turn{ActionNumber: 1, Participants: participants}
}

// CurrentIndex is the join-order index of the player who owns this
// action.
func (t *Turn) CurrentIndex() int {
	return (t.ActionNumber - 1) % t.Participants
}

// PositionInRound cycles over [0, Participants).
func (t *Turn) PositionInRound() int {
	return (t.ActionNumber - 1) % t.Participants
}

// Round is 1-based and increments every Participants actions.
func (t *Turn) Round() int {
	return (t.ActionNumber-1)/t.Participants + 1
}

// OpenWindow starts the current action's decision window.
func (t *Turn) OpenWindow(now time.Time, window time.Duration) {
	t.StartedAt = now
	t.EndsAt = now.Add(window)
}

// Advance moves to the next action number.
func (t *Turn) Advance() {
	t.ActionNumber++
	t.Wrapped = t.PositionInRound() == 0
}
