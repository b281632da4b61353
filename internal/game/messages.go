package game

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/obslog"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/score"
)

// MessageType tags outbound session messages for the transport layer.
type MessageType int

const (
	BoardSnapshotMessage MessageType = iota
	TurnTimeoutMessage
	GameCompletedMessage
	DecisionPromptMessage
	DecisionUpdateMessage
	RematchStartedMessage
	SessionTerminatedMessage
	PlayerDisconnectedMessage
)

func (t MessageType) String() string {
	switch t {
	case BoardSnapshotMessage:
		return "board_snapshot"
	case TurnTimeoutMessage:
		return "turn_timeout"
	case GameCompletedMessage:
		return "game_completed"
	case DecisionPromptMessage:
		return "decision_prompt"
	case DecisionUpdateMessage:
		return "decision_update"
	case RematchStartedMessage:
		return "rematch_started"
	case SessionTerminatedMessage:
		return "session_terminated"
	case PlayerDisconnectedMessage:
		return "player_disconnected"
	default:
		return "unknown"
	}
}

// Publisher delivers an encoded payload to a set of users. The
// transport layer implements it; the session core never blocks on it.
type Publisher interface {
	Publish(userIDs []string, messageType MessageType, payload []byte)
}

// Messenger builds typed session payloads and hands them to the
// Publisher. Encoding failures are logged and dropped, never fatal.
type Messenger struct {
	pub Publisher
}

// NewMessenger wraps a Publisher.
func NewMessenger(pub Publisher) *Messenger {
	return &Messenger{pub: pub}
}

type boardSnapshotPayload struct {
	SessionID    string `json:"session_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Cells        []byte `json:"cells"`
	ActionNumber int    `json:"action_number"`
	CurrentUser  string `json:"current_user"`
	EndsAt       int64  `json:"ends_at_unix_ms"`
}

type turnTimeoutPayload struct {
	SessionID    string `json:"session_id"`
	ActionNumber int    `json:"action_number"`
	UserID       string `json:"user_id"`
}

type gameCompletedPayload struct {
	SessionID string            `json:"session_id"`
	Winner    string            `json:"winner,omitempty"`
	Outcomes  map[string]string `json:"outcomes"`
	Deltas    map[string]int    `json:"deltas"`
}

type decisionPromptPayload struct {
	SessionID string `json:"session_id"`
	Deadline  int64  `json:"deadline_unix_ms"`
}

type decisionUpdatePayload struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Rematch   bool   `json:"rematch"`
}

type rematchStartedPayload struct {
	SessionID string   `json:"session_id"`
	Users     []string `json:"users"`
}

type sessionTerminatedPayload struct {
	SessionID string `json:"session_id"`
}

type playerDisconnectedPayload struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

func (m *Messenger) send(users []string, mt MessageType, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		obslog.L().Error("session_message_encode_failed",
			zap.String("message_type", mt.String()),
			zap.Error(err))
		return
	}
	m.pub.Publish(users, mt, payload)
}

// BoardSnapshot broadcasts the live grid plus the current turn window.
func (m *Messenger) BoardSnapshot(s *Session) {
	p := boardSnapshotPayload{
		SessionID: s.ID,
		Width:     s.Board.Width(),
		Height:    s.Board.Height(),
		Cells:     s.Board.Snapshot(),
	}
	if s.Turn != nil {
		p.ActionNumber = s.Turn.ActionNumber
		p.CurrentUser = s.CurrentUser()
		p.EndsAt = s.Turn.EndsAt.UnixMilli()
	}
	m.send(s.Users, BoardSnapshotMessage, p)
}

// TurnTimeout tells everyone the stalling player's action was forfeited.
func (m *Messenger) TurnTimeout(s *Session, actionNumber int, userID string) {
	m.send(s.Users, TurnTimeoutMessage, turnTimeoutPayload{
		SessionID:    s.ID,
		ActionNumber: actionNumber,
		UserID:       userID,
	})
}

// GameCompleted broadcasts final outcomes and rating deltas.
func (m *Messenger) GameCompleted(s *Session, outcomes map[string]score.Outcome, deltas map[string]int) {
	names := make(map[string]string, len(outcomes))
	for u, o := range outcomes {
		names[u] = o.String()
	}
	m.send(s.Users, GameCompletedMessage, gameCompletedPayload{
		SessionID: s.ID,
		Winner:    s.Winner,
		Outcomes:  names,
		Deltas:    deltas,
	})
}

// DecisionPrompt opens the rematch-or-leave window.
func (m *Messenger) DecisionPrompt(s *Session, deadline time.Time) {
	m.send(s.Users, DecisionPromptMessage, decisionPromptPayload{
		SessionID: s.ID,
		Deadline:  deadline.UnixMilli(),
	})
}

// DecisionUpdate relays one participant's choice to the rest.
func (m *Messenger) DecisionUpdate(s *Session, userID string, rematch bool) {
	m.send(s.Users, DecisionUpdateMessage, decisionUpdatePayload{
		SessionID: s.ID,
		UserID:    userID,
		Rematch:   rematch,
	})
}

// RematchStarted tells the staying players a fresh game began.
func (m *Messenger) RematchStarted(s *Session) {
	m.send(s.Users, RematchStartedMessage, rematchStartedPayload{
		SessionID: s.ID,
		Users:     s.Users,
	})
}

// SessionTerminated is the final message a session sends.
func (m *Messenger) SessionTerminated(s *Session, users []string) {
	m.send(users, SessionTerminatedMessage, sessionTerminatedPayload{SessionID: s.ID})
}

// PlayerDisconnected tells the remaining players someone dropped.
func (m *Messenger) PlayerDisconnected(s *Session, userID string) {
	m.send(s.Users, PlayerDisconnectedMessage, playerDisconnectedPayload{
		SessionID: s.ID,
		UserID:    userID,
	})
}
