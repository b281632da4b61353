package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/board"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/fsm"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/obslog"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/rule"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/score"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/timeout"
)

// Session lifecycle phases.
const (
	PhaseLobby             fsm.StateName = "lobby"
	PhaseTurnWaiting       fsm.StateName = "turn_waiting"
	PhaseMoveValidating    fsm.StateName = "move_validating"
	PhaseMoveApplying      fsm.StateName = "move_applying"
	PhaseOutcomeEvaluating fsm.StateName = "outcome_evaluating"
	PhaseTurnFinalizing    fsm.StateName = "turn_finalizing"
	PhaseDecisionWaiting   fsm.StateName = "post_game_decision_waiting"
	PhaseDecisionResolving fsm.StateName = "post_game_decision_resolving"
	PhaseRematchPreparing  fsm.StateName = "session_rematch_preparing"
	PhaseTerminating       fsm.StateName = "session_terminating"
	PhaseCompleted         fsm.StateName = "completed"
)

// RatingStore applies rating deltas at game end. Calls are best-effort;
// failures never abort a transition.
type RatingStore interface {
	Adjust(ctx context.Context, userID string, delta int) error
}

// PresenceNotifier mirrors connection state to an external store.
// Calls are best-effort.
type PresenceNotifier interface {
	MarkDisconnected(ctx context.Context, userID string) error
	SessionClosed(ctx context.Context, sessionID string, userIDs []string) error
}

// Deps wires a hub to its collaborators. Messenger, TurnTimeouts,
// DecisionTimeouts and Calc are required; the rest are optional.
type Deps struct {
	Messenger        *Messenger
	TurnTimeouts     *timeout.TurnCoordinator
	DecisionTimeouts *timeout.DecisionCoordinator
	Rules            *rule.Engine
	Calc             score.Calculator
	Ratings          RatingStore
	Presence         PresenceNotifier
	DecisionWindow   time.Duration
	Now              func() time.Time
}

// ErrMissingDependency is returned when a required Deps field is nil.
var ErrMissingDependency = errors.New("game: missing hub dependency")

// Hub owns one session and serializes all mutation of it. Submit only
// enqueues; Process, driven by the registry tick, is the single code
// path that touches session state.
type Hub struct {
	s       *Session
	deps    Deps
	machine *fsm.Machine

	// processMu is the session's single-writer slot.
	processMu sync.Mutex

	pendingMove *MoveEvent
	terminal    bool

	// armedAction is the action number whose deadline is currently
	// armed. Re-entering turn_waiting for the same action (a rejected
	// move) must not restart the window.
	armedAction int
}

// NewHub builds the session state machine. Missing required
// dependencies are a fatal construction error.
func NewHub(s *Session, deps Deps) (*Hub, error) {
	if deps.Messenger == nil || deps.TurnTimeouts == nil || deps.DecisionTimeouts == nil || deps.Calc == nil {
		return nil, ErrMissingDependency
	}
	if deps.DecisionWindow <= 0 {
		deps.DecisionWindow = 30 * time.Second
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	h := &Hub{s: s, deps: deps, machine: fsm.New()}
	h.machine.AddTransitionListener(h.onTransition)
	for _, st := range h.states() {
		if err := h.machine.Register(st); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// SessionID returns the owned session's identity.
func (h *Hub) SessionID() string { return h.s.ID }

// Session exposes the owned session. Callers outside the processing
// slot must treat it as read-only.
func (h *Hub) Session() *Session { return h.s }

// Done reports whether the lifecycle reached its terminal phase.
func (h *Hub) Done() bool { return h.s.Phase == PhaseCompleted }

// Start enters the lobby.
func (h *Hub) Start() error {
	h.processMu.Lock()
	defer h.processMu.Unlock()
	return h.machine.Start(PhaseLobby, nil)
}

// Submit enqueues an event for the next Process pass. Safe to call from
// any goroutine; it never touches session state.
func (h *Hub) Submit(ev fsm.Event, done ...func()) {
	h.machine.Submit(ev, done...)
}

// Process drains pending events and runs the periodic update hook.
// Panics are contained per-session so one broken session cannot stall
// the sweep.
func (h *Hub) Process(now time.Time) {
	h.processMu.Lock()
	defer h.processMu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			obslog.L().Error("session_process_panic",
				zap.String("session_id", h.s.ID),
				zap.Any("panic", r))
		}
	}()
	if err := h.machine.Process(nil, now); err != nil {
		obslog.L().Error("session_process_failed",
			zap.String("session_id", h.s.ID),
			zap.Error(err))
	}
}

func (h *Hub) now() time.Time { return h.deps.Now() }

// onTransition persists the phase onto the session record and fires the
// rule engine. Listeners run after the state swap and before the new
// state's enter hook, so session-start rules can adjust the turn window
// before the first deadline is armed.
func (h *Hub) onTransition(from, to fsm.StateName) {
	h.s.Phase = to
	obslog.L().Debug("session_phase",
		zap.String("session_id", h.s.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	if h.deps.Rules == nil {
		return
	}
	switch {
	case to == PhaseTurnWaiting && (from == PhaseLobby || from == PhaseRematchPreparing):
		h.deps.Rules.Fire(rule.TriggerSessionStart, ruleAccess{h})
	case to == PhaseTurnFinalizing && !h.terminal:
		h.deps.Rules.Fire(rule.TriggerTurnFinalized, ruleAccess{h})
	}
}

func (h *Hub) states() []*fsm.State {
	return []*fsm.State{
		{Name: PhaseLobby, OnEvent: h.lobbyEvent},
		{Name: PhaseTurnWaiting, OnEnter: h.enterTurnWaiting, OnEvent: h.turnWaitingEvent},
		{Name: PhaseMoveValidating, OnEnter: h.enterMoveValidating},
		{Name: PhaseMoveApplying, OnEnter: h.enterMoveApplying},
		{Name: PhaseOutcomeEvaluating, OnEnter: h.enterOutcomeEvaluating},
		{Name: PhaseTurnFinalizing, OnEnter: h.enterTurnFinalizing},
		{Name: PhaseDecisionWaiting, OnEnter: h.enterDecisionWaiting, OnEvent: h.decisionWaitingEvent},
		{Name: PhaseDecisionResolving, OnEnter: h.enterDecisionResolving},
		{Name: PhaseRematchPreparing, OnEnter: h.enterRematchPreparing},
		{Name: PhaseTerminating, OnEnter: h.enterTerminating},
		{Name: PhaseCompleted},
	}
}

func (h *Hub) lobbyEvent(_ fsm.Context, ev fsm.Event) fsm.Step {
	switch e := ev.(type) {
	case ReadyEvent:
		if !h.s.HasUser(e.UserID) {
			return fsm.Stay()
		}
		h.s.ready[e.UserID] = true
		if !h.s.allReady() {
			return fsm.Stay()
		}
		h.s.Turn = NewTurn(len(h.s.Users))
		for _, u := range h.s.Users {
			h.s.outcomes[u] = score.Pending
		}
		obslog.L().Info("session_started",
			zap.String("session_id", h.s.ID),
			zap.Int("participants", len(h.s.Users)))
		return fsm.TransitionTo(PhaseTurnWaiting)
	case DisconnectEvent:
		if !h.noteDisconnect(e.UserID) {
			return fsm.Stay()
		}
		if h.s.ConnectedCount() < 2 {
			return fsm.TransitionTo(PhaseTerminating)
		}
		if h.s.allReady() {
			h.s.Turn = NewTurn(len(h.s.Users))
			for _, u := range h.s.Users {
				h.s.outcomes[u] = score.Pending
			}
			return fsm.TransitionTo(PhaseTurnWaiting)
		}
		return fsm.Stay()
	default:
		return fsm.Stay()
	}
}

func (h *Hub) enterTurnWaiting(_ fsm.Context) fsm.Step {
	t := h.s.Turn
	if t.ActionNumber == h.armedAction {
		return fsm.Stay()
	}
	t.OpenWindow(h.now(), h.s.turnWindow)
	h.deps.TurnTimeouts.Schedule(h.s.ID, t.ActionNumber, h.s.turnWindow)
	h.armedAction = t.ActionNumber
	h.deps.Messenger.BoardSnapshot(h.s)
	return fsm.Stay()
}

func (h *Hub) turnWaitingEvent(_ fsm.Context, ev fsm.Event) fsm.Step {
	switch e := ev.(type) {
	case MoveEvent:
		if e.UserID != h.s.CurrentUser() {
			obslog.L().Debug("move_out_of_turn",
				zap.String("session_id", h.s.ID),
				zap.String("user_id", e.UserID))
			return fsm.Stay()
		}
		mv := e
		h.pendingMove = &mv
		return fsm.TransitionTo(PhaseMoveValidating)
	case TimeoutEvent:
		if e.ExpectedAction != h.s.Turn.ActionNumber {
			return fsm.Stay()
		}
		stalled := h.s.CurrentUser()
		obslog.L().Info("turn_forfeited",
			zap.String("session_id", h.s.ID),
			zap.String("user_id", stalled),
			zap.Int("action_number", e.ExpectedAction))
		h.deps.Messenger.TurnTimeout(h.s, e.ExpectedAction, stalled)
		h.pendingMove = nil
		h.terminal = false
		return fsm.TransitionTo(PhaseTurnFinalizing)
	case DisconnectEvent:
		if !h.noteDisconnect(e.UserID) {
			return fsm.Stay()
		}
		if h.s.ConnectedCount() < 2 {
			h.finishByAbandonment()
			return fsm.TransitionTo(PhaseTurnFinalizing)
		}
		return fsm.Stay()
	default:
		return fsm.Stay()
	}
}

func (h *Hub) enterMoveValidating(_ fsm.Context) fsm.Step {
	mv := h.pendingMove
	if mv == nil {
		return fsm.TransitionTo(PhaseTurnWaiting)
	}
	if !h.s.Board.InBounds(mv.X, mv.Y) || !h.s.Board.IsEmpty(mv.X, mv.Y) {
		obslog.L().Debug("move_rejected",
			zap.String("session_id", h.s.ID),
			zap.String("user_id", mv.UserID),
			zap.Int("x", mv.X),
			zap.Int("y", mv.Y))
		h.pendingMove = nil
		return fsm.TransitionTo(PhaseTurnWaiting)
	}
	return fsm.TransitionTo(PhaseMoveApplying)
}

func (h *Hub) enterMoveApplying(_ fsm.Context) fsm.Step {
	mv := h.pendingMove
	if err := h.s.Board.Set(mv.X, mv.Y, h.s.StoneFor(mv.UserID)); err != nil {
		obslog.L().Error("move_commit_failed",
			zap.String("session_id", h.s.ID),
			zap.Error(err))
		h.pendingMove = nil
		return fsm.TransitionTo(PhaseTurnWaiting)
	}
	h.deps.Messenger.BoardSnapshot(h.s)
	return fsm.TransitionTo(PhaseOutcomeEvaluating)
}

func (h *Hub) enterOutcomeEvaluating(_ fsm.Context) fsm.Step {
	mv := h.pendingMove
	h.pendingMove = nil
	switch {
	case h.s.Board.HasFiveInARow(mv.X, mv.Y, h.s.StoneFor(mv.UserID)):
		h.s.Winner = mv.UserID
		for _, u := range h.s.Users {
			if u == mv.UserID {
				h.s.outcomes[u] = score.Win
			} else {
				h.s.outcomes[u] = score.Loss
			}
		}
		h.terminal = true
	case h.s.Board.Full():
		for _, u := range h.s.Users {
			h.s.outcomes[u] = score.Draw
		}
		h.terminal = true
	default:
		h.terminal = false
	}
	return fsm.TransitionTo(PhaseTurnFinalizing)
}

func (h *Hub) enterTurnFinalizing(_ fsm.Context) fsm.Step {
	if !h.terminal {
		h.s.Turn.Advance()
		// Dropped players never hold the turn.
		for i := 0; i < len(h.s.Users) && h.s.Disconnected(h.s.CurrentUser()); i++ {
			h.s.Turn.Advance()
		}
		return fsm.TransitionTo(PhaseTurnWaiting)
	}
	h.deps.TurnTimeouts.Cancel(h.s.ID)
	deltas := h.applyScores()
	h.deps.Messenger.GameCompleted(h.s, h.s.Outcomes(), deltas)
	obslog.L().Info("game_completed",
		zap.String("session_id", h.s.ID),
		zap.String("winner", h.s.Winner))
	return fsm.TransitionTo(PhaseDecisionWaiting)
}

func (h *Hub) enterDecisionWaiting(_ fsm.Context) fsm.Step {
	deadline := h.now().Add(h.deps.DecisionWindow)
	h.deps.DecisionTimeouts.Schedule(h.s.ID, h.deps.DecisionWindow)
	h.deps.Messenger.DecisionPrompt(h.s, deadline)
	return fsm.Stay()
}

func (h *Hub) decisionWaitingEvent(_ fsm.Context, ev fsm.Event) fsm.Step {
	switch e := ev.(type) {
	case DecisionEvent:
		if !h.s.HasUser(e.UserID) || h.s.disconnected[e.UserID] {
			return fsm.Stay()
		}
		h.s.decisions[e.UserID] = e.Rematch
		h.deps.Messenger.DecisionUpdate(h.s, e.UserID, e.Rematch)
		if h.s.allDecided() {
			return fsm.TransitionTo(PhaseDecisionResolving)
		}
		return fsm.Stay()
	case DecisionTimeoutEvent:
		// non-responders default to leaving
		return fsm.TransitionTo(PhaseDecisionResolving)
	case DisconnectEvent:
		if !h.noteDisconnect(e.UserID) {
			return fsm.Stay()
		}
		if h.s.allDecided() {
			return fsm.TransitionTo(PhaseDecisionResolving)
		}
		return fsm.Stay()
	default:
		return fsm.Stay()
	}
}

func (h *Hub) enterDecisionResolving(_ fsm.Context) fsm.Step {
	h.deps.DecisionTimeouts.Cancel(h.s.ID)
	if len(h.s.rematchUsers()) >= 2 {
		return fsm.TransitionTo(PhaseRematchPreparing)
	}
	return fsm.TransitionTo(PhaseTerminating)
}

func (h *Hub) enterRematchPreparing(_ fsm.Context) fsm.Step {
	staying := h.s.rematchUsers()
	var leaving []string
	for _, u := range h.s.Users {
		if !h.s.decisions[u] || h.s.disconnected[u] {
			leaving = append(leaving, u)
		}
	}
	if len(leaving) > 0 {
		h.deps.Messenger.SessionTerminated(h.s, leaving)
	}
	h.s.resetForRematch(staying)
	h.terminal = false
	h.armedAction = 0
	if h.deps.Rules != nil {
		h.deps.Rules.Reset(h.now().UnixNano())
	}
	h.deps.Messenger.RematchStarted(h.s)
	obslog.L().Info("session_rematch",
		zap.String("session_id", h.s.ID),
		zap.Int("participants", len(staying)))
	return fsm.TransitionTo(PhaseTurnWaiting)
}

func (h *Hub) enterTerminating(_ fsm.Context) fsm.Step {
	h.deps.TurnTimeouts.Cancel(h.s.ID)
	h.deps.DecisionTimeouts.Cancel(h.s.ID)
	h.deps.Messenger.SessionTerminated(h.s, h.s.Users)
	if h.deps.Presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.deps.Presence.SessionClosed(ctx, h.s.ID, h.s.Users); err != nil {
			obslog.L().Warn("presence_session_close_failed",
				zap.String("session_id", h.s.ID),
				zap.Error(err))
		}
	}
	obslog.L().Info("session_terminated", zap.String("session_id", h.s.ID))
	return fsm.TransitionTo(PhaseCompleted)
}

// noteDisconnect records the drop and notifies the rest of the session.
// Returns false when the user is unknown or already marked.
func (h *Hub) noteDisconnect(userID string) bool {
	if !h.s.HasUser(userID) || h.s.disconnected[userID] {
		return false
	}
	h.s.disconnected[userID] = true
	h.deps.Messenger.PlayerDisconnected(h.s, userID)
	if h.deps.Presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.deps.Presence.MarkDisconnected(ctx, userID); err != nil {
			obslog.L().Warn("presence_mark_failed",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}
	obslog.L().Info("player_disconnected",
		zap.String("session_id", h.s.ID),
		zap.String("user_id", userID))
	return true
}

// finishByAbandonment ends the game when fewer than two players remain
// connected. A lone survivor wins; everyone who dropped takes the
// disconnect penalty through the calculator's disconnected flag.
func (h *Hub) finishByAbandonment() {
	var survivor string
	for _, u := range h.s.Users {
		if !h.s.disconnected[u] {
			survivor = u
		}
	}
	for _, u := range h.s.Users {
		if u == survivor && survivor != "" {
			h.s.outcomes[u] = score.Win
		} else {
			h.s.outcomes[u] = score.Loss
		}
	}
	h.s.Winner = survivor
	h.pendingMove = nil
	h.terminal = true
}

// applyScores runs the calculator once per participant and pushes the
// deltas to the rating store best-effort.
func (h *Hub) applyScores() map[string]int {
	deltas := make(map[string]int, len(h.s.Users))
	for _, u := range h.s.Users {
		deltas[u] = h.deps.Calc.Calculate(h.s.outcomes[u], h.s.disconnected[u])
	}
	if h.deps.Ratings == nil {
		return deltas
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for u, d := range deltas {
		if err := h.deps.Ratings.Adjust(ctx, u, d); err != nil {
			obslog.L().Warn("rating_adjust_failed",
				zap.String("user_id", u),
				zap.Int("delta", d),
				zap.Error(err))
		}
	}
	return deltas
}

// ruleAccess is the narrow session view handed to rules.
type ruleAccess struct{ h *Hub }

func (a ruleAccess) Board() *board.Board             { return a.h.s.Board }
func (a ruleAccess) ActionNumber() int               { return a.h.s.Turn.ActionNumber }
func (a ruleAccess) Participants() int               { return len(a.h.s.Users) }
func (a ruleAccess) BaseTurnDuration() time.Duration { return a.h.s.baseTurnWindow }
func (a ruleAccess) SetTurnDuration(d time.Duration) { a.h.s.turnWindow = d }
func (a ruleAccess) PublishBoard()                   { a.h.deps.Messenger.BoardSnapshot(a.h.s) }
