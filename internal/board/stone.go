package board

// Stone is the occupant of one board cell, encoded as a signed byte for
// compact snapshots.
type Stone int8

// MaxPlayers is the number of distinct player stone codes.
const MaxPlayers = 4

const (
	Empty   Stone = -1
	Player1 Stone = 0
	Player2 Stone = 1
	Player3 Stone = 2
	Player4 Stone = 3
	// Joker counts toward any player's run.
	Joker Stone = 4
	// Blocker occupies a cell and breaks runs for everyone.
	Blocker Stone = 5
)

// FromPlayerOrder maps a join-order index to that player's stone.
func FromPlayerOrder(order int) Stone {
	if order < 0 || order > 3 {
		return Empty
	}
	return Stone(order)
}

// FromByte decodes a snapshot cell.
func FromByte(b byte) Stone {
	s := Stone(int8(b))
	if s < Player1 || s > Blocker {
		return Empty
	}
	return s
}

func (s Stone) IsPlayer() bool  { return s >= Player1 && s <= Player4 }
func (s Stone) IsJoker() bool   { return s == Joker }
func (s Stone) IsBlocker() bool { return s == Blocker }

// PlayerOrder returns the join-order index for a player stone, -1 otherwise.
func (s Stone) PlayerOrder() int {
	if !s.IsPlayer() {
		return -1
	}
	return int(s)
}

// CountsFor reports whether this stone extends a run for the given player
// stone. Jokers are wild; blockers and empties never count.
func (s Stone) CountsFor(player Stone) bool {
	if !player.IsPlayer() {
		return false
	}
	switch {
	case s == Empty, s.IsBlocker():
		return false
	case s.IsJoker():
		return true
	default:
		return s == player
	}
}

func (s Stone) String() string {
	switch s {
	case Empty:
		return "empty"
	case Joker:
		return "joker"
	case Blocker:
		return "blocker"
	default:
		if s.IsPlayer() {
			return "player" + string(rune('1'+int(s)))
		}
		return "unknown"
	}
}
