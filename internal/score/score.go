// Package score maps per-player game outcomes to rating deltas.
package score

// Outcome is a player's final standing in a finished game.
type Outcome int

const (
	Pending Outcome = iota
	Win
	Loss
	Draw
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Win:
		return "win"
	case Loss:
		return "loss"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// Calculator converts a final outcome into a signed rating delta. The
// disconnected flag marks players who dropped before the game ended.
type Calculator interface {
	Calculate(o Outcome, disconnected bool) int
}

// FixedDeltaCalculator awards a flat delta per outcome kind. A
// disconnected player takes the disconnect delta regardless of outcome.
type FixedDeltaCalculator struct {
	WinDelta        int
	LossDelta       int
	DrawDelta       int
	DisconnectDelta int
}

// NewFixedDeltaCalculator returns the default scoring table.
func NewFixedDeltaCalculator() *FixedDeltaCalculator {
	return &FixedDeltaCalculator{
		WinDelta:        10,
		LossDelta:       -5,
		DrawDelta:       0,
		DisconnectDelta: -5,
	}
}

func (c *FixedDeltaCalculator) Calculate(o Outcome, disconnected bool) int {
	if disconnected {
		return c.DisconnectDelta
	}
	switch o {
	case Win:
		return c.WinDelta
	case Loss:
		return c.LossDelta
	case Draw:
		return c.DrawDelta
	default:
		return 0
	}
}
