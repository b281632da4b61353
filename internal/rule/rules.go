package rule

import (
	"go.uber.org/zap"

	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/board"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/obslog"
)

const (
	FiveTurnBlockerID ID = "five_turn_blocker"
	JokerSummonID     ID = "joker_summon"
	SpeedGameID       ID = "speed_game"
)

const (
	blockerInterval = 5
	jokerInterval   = 7
	speedDivisor    = 2
)

// FiveTurnBlocker converts one random stone of each player into a
// run-breaking blocker every fifth completed action.
type FiveTurnBlocker struct{}

func (FiveTurnBlocker) ID() ID           { return FiveTurnBlockerID }
func (FiveTurnBlocker) Trigger() Trigger { return TriggerTurnFinalized }
func (FiveTurnBlocker) MinRating() int   { return 500 }

func (FiveTurnBlocker) Apply(acc Access, scratch *Scratch) {
	if acc.ActionNumber()%blockerInterval != 0 {
		return
	}
	b := acc.Board()
	converted := 0
	for i := 0; i < acc.Participants(); i++ {
		x, y, ok := randomStoneCell(b, board.FromPlayerOrder(i), scratch.Rng)
		if !ok {
			continue
		}
		if err := b.Set(x, y, board.Blocker); err != nil {
			continue
		}
		converted++
	}
	if converted == 0 {
		return
	}
	scratch.BlockersPlaced += converted
	obslog.L().Debug("rule_blockers_converted", zap.Int("count", converted))
	acc.PublishBoard()
}

// JokerSummon drops a wildcard joker stone on a random empty cell every
// seventh completed action.
type JokerSummon struct{}

func (JokerSummon) ID() ID           { return JokerSummonID }
func (JokerSummon) Trigger() Trigger { return TriggerTurnFinalized }
func (JokerSummon) MinRating() int   { return 1000 }

func (JokerSummon) Apply(acc Access, scratch *Scratch) {
	if acc.ActionNumber()%jokerInterval != 0 {
		return
	}
	x, y, ok := randomEmptyCell(acc.Board(), scratch.Rng)
	if !ok {
		return
	}
	if err := acc.Board().Set(x, y, board.Joker); err != nil {
		return
	}
	scratch.JokersPlaced++
	obslog.L().Debug("rule_joker_placed", zap.Int("x", x), zap.Int("y", y))
	acc.PublishBoard()
}

// SpeedGame halves the turn window for the whole session.
type SpeedGame struct{}

func (SpeedGame) ID() ID           { return SpeedGameID }
func (SpeedGame) Trigger() Trigger { return TriggerSessionStart }
func (SpeedGame) MinRating() int   { return 0 }

func (SpeedGame) Apply(acc Access, scratch *Scratch) {
	if scratch.SpeedApplied {
		return
	}
	acc.SetTurnDuration(acc.BaseTurnDuration() / speedDivisor)
	scratch.SpeedApplied = true
	obslog.L().Debug("rule_speed_game_applied")
}
