package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/board"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/fsm"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/score"
)

// Session is one live game's mutable state. It is owned by its Hub and
// mutated only while the hub's processing slot is held.
type Session struct {
	ID    string
	Users []string // join order fixes stone codes
	Board *board.Board
	Turn  *Turn
	Phase fsm.StateName

	// SkillRating is the lowest participant rating at creation, used as
	// the skill context for rule eligibility.
	SkillRating int

	Winner string

	baseTurnWindow time.Duration
	turnWindow     time.Duration

	ready        map[string]bool
	disconnected map[string]bool
	decisions    map[string]bool
	outcomes     map[string]score.Outcome
}

// NewSession creates a session for the given participants in join
// order. The board starts empty; the turn starts when the lobby
// resolves.
func NewSession(users []string, width, height int, turnWindow time.Duration, skillRating int) (*Session, error) {
	if len(users) < 2 {
		return nil, fmt.Errorf("game: need at least 2 participants, got %d", len(users))
	}
	if len(users) > board.MaxPlayers {
		return nil, fmt.Errorf("game: at most %d participants, got %d", board.MaxPlayers, len(users))
	}
	b, err := board.New(width, height)
	if err != nil {
		return nil, err
	}
	us := make([]string, len(users))
	copy(us, users)
	return &Session{
		ID:             uuid.NewString(),
		Users:          us,
		Board:          b,
		SkillRating:    skillRating,
		baseTurnWindow: turnWindow,
		turnWindow:     turnWindow,
		ready:          make(map[string]bool),
		disconnected:   make(map[string]bool),
		decisions:      make(map[string]bool),
		outcomes:       make(map[string]score.Outcome),
	}, nil
}

// HasUser reports whether the user participates in this session.
func (s *Session) HasUser(userID string) bool {
	for _, u := range s.Users {
		if u == userID {
			return true
		}
	}
	return false
}

// CurrentUser is the participant who owns the current action, or ""
// before the first turn starts.
func (s *Session) CurrentUser() string {
	if s.Turn == nil {
		return ""
	}
	return s.Users[s.Turn.CurrentIndex()]
}

// StoneFor maps a participant to their stone code by join order.
func (s *Session) StoneFor(userID string) board.Stone {
	for i, u := range s.Users {
		if u == userID {
			return board.FromPlayerOrder(i)
		}
	}
	return board.Empty
}

// ConnectedCount counts participants who have not dropped.
func (s *Session) ConnectedCount() int {
	n := 0
	for _, u := range s.Users {
		if !s.disconnected[u] {
			n++
		}
	}
	return n
}

// Outcomes returns a copy of the per-user final outcomes.
func (s *Session) Outcomes() map[string]score.Outcome {
	out := make(map[string]score.Outcome, len(s.outcomes))
	for u, o := range s.outcomes {
		out[u] = o
	}
	return out
}

// Disconnected reports whether the user dropped.
func (s *Session) Disconnected(userID string) bool {
	return s.disconnected[userID]
}

// allReady reports whether every still-connected participant signalled
// readiness.
func (s *Session) allReady() bool {
	for _, u := range s.Users {
		if s.disconnected[u] {
			continue
		}
		if !s.ready[u] {
			return false
		}
	}
	return true
}

// allDecided reports whether every participant's decision is in.
// Disconnected participants count as decided (they leave).
func (s *Session) allDecided() bool {
	for _, u := range s.Users {
		if s.disconnected[u] {
			continue
		}
		if _, ok := s.decisions[u]; !ok {
			return false
		}
	}
	return true
}

// rematchUsers lists participants who chose rematch and are still
// connected, in join order.
func (s *Session) rematchUsers() []string {
	var out []string
	for _, u := range s.Users {
		if s.decisions[u] && !s.disconnected[u] {
			out = append(out, u)
		}
	}
	return out
}

// resetForRematch keeps the session identity and participant set but
// clears all per-game state.
func (s *Session) resetForRematch(users []string) {
	s.Users = users
	s.Board.Reset()
	s.Winner = ""
	s.turnWindow = s.baseTurnWindow
	s.ready = make(map[string]bool)
	s.decisions = make(map[string]bool)
	s.outcomes = make(map[string]score.Outcome)
	s.Turn = NewTurn(len(users))
}
