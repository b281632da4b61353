// Package rule hosts the pluggable in-game rule engine. Rules are
// selected per session and fire on well-known session triggers.
package rule

import (
	"math/rand"
	"time"

	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/board"
)

// ID names a registered rule.
type ID string

// Trigger identifies the session moment a rule reacts to.
type Trigger int

const (
	// TriggerSessionStart fires once when the session leaves the lobby.
	TriggerSessionStart Trigger = iota
	// TriggerTurnFinalized fires after every completed action.
	TriggerTurnFinalized
)

// Access is the slice of a game session a rule may touch. Sessions hand
// rules this narrow view instead of themselves.
type Access interface {
	Board() *board.Board
	ActionNumber() int
	Participants() int
	BaseTurnDuration() time.Duration
	SetTurnDuration(time.Duration)
	PublishBoard()
}

// Rule mutates a session at its trigger point. MinRating is the
// session skill rating below which the rule is suppressed, so
// low-skill games skip the disruptive rules.
type Rule interface {
	ID() ID
	Trigger() Trigger
	MinRating() int
	Apply(acc Access, scratch *Scratch)
}

// Scratch is the per-session working state rules share. Fields are
// typed per rule rather than stuffed into a generic bag.
type Scratch struct {
	Rng            *rand.Rand
	BlockersPlaced int
	JokersPlaced   int
	SpeedApplied   bool
}

// NewScratch seeds per-session rule state.
func NewScratch(seed int64) *Scratch {
	return &Scratch{Rng: rand.New(rand.NewSource(seed))}
}

// randomEmptyCell picks a uniformly random empty cell, returning false
// when the board is full.
func randomEmptyCell(b *board.Board, rng *rand.Rand) (int, int, bool) {
	return randomCell(b, rng, func(s board.Stone) bool { return s == board.Empty })
}

// randomStoneCell picks a uniformly random cell holding the given
// stone, returning false when none exists.
func randomStoneCell(b *board.Board, stone board.Stone, rng *rand.Rand) (int, int, bool) {
	return randomCell(b, rng, func(s board.Stone) bool { return s == stone })
}

func randomCell(b *board.Board, rng *rand.Rand, match func(board.Stone) bool) (int, int, bool) {
	var cells [][2]int
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			if match(b.At(x, y)) {
				cells = append(cells, [2]int{x, y})
			}
		}
	}
	if len(cells) == 0 {
		return 0, 0, false
	}
	c := cells[rng.Intn(len(cells))]
	return c[0], c[1], true
}
