// Package server composes the matchmaking queue, the session registry
// and the timeout coordinators into one runnable engine. The transport
// layer talks to a Server; everything below it stays transport-free.
package server

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/sangyeons57/teamnova-omok-server-sub002/internal/config"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/fsm"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/game"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/matching"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/obslog"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/rule"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/score"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/timeout"
)

// RatingSource reads and adjusts persistent user ratings. Implemented
// by rating.Repository; nil means every user queues at the default
// rating and no deltas are persisted.
type RatingSource interface {
	Rating(ctx context.Context, userID string) (int, error)
	Adjust(ctx context.Context, userID string, delta int) error
}

// PresenceService tracks which session each user occupies. Implemented
// by presence.Manager; nil disables tracking.
type PresenceService interface {
	TrackSession(ctx context.Context, sessionID string, userIDs []string) error
	MarkDisconnected(ctx context.Context, userID string) error
	ClearDisconnected(ctx context.Context, userID string) error
	SessionClosed(ctx context.Context, sessionID string, userIDs []string) error
}

// Options carries the pluggable edges of a Server. Publisher is
// required; the rest default to disabled or to the built-in registry.
type Options struct {
	Publisher game.Publisher
	Ratings   RatingSource
	Presence  PresenceService
	Rules     *rule.Registry
	Calc      score.Calculator
	Seed      int64
	Now       func() time.Time
}

// ErrNoPublisher is returned by New when Options.Publisher is nil.
var ErrNoPublisher = errors.New("server: publisher is required")

// Server owns the full game engine: matchmaking intake, group to
// session promotion, and event routing into live session hubs.
type Server struct {
	cfg     appcfg.AppConfig
	matcher *matching.Service
	reg     *game.Registry

	turnTimeouts     *timeout.TurnCoordinator
	decisionTimeouts *timeout.DecisionCoordinator

	messenger  *game.Messenger
	rules      *rule.Registry
	fixedRules []rule.ID
	calc       score.Calculator
	ratings    RatingSource
	presence   PresenceService
	rng        *rand.Rand
	now        func() time.Time
}

// New builds a Server from the app config. The matching formula is
// loaded from cfg.MatchingConfigPath when set, defaults otherwise.
func New(cfg appcfg.AppConfig, opts Options) (*Server, error) {
	if opts.Publisher == nil {
		return nil, ErrNoPublisher
	}
	matchCfg, err := matching.LoadConfig(cfg.MatchingConfigPath)
	if err != nil {
		return nil, err
	}
	rules := opts.Rules
	if rules == nil {
		rules = rule.DefaultRegistry()
	}
	calc := opts.Calc
	if calc == nil {
		calc = score.NewFixedDeltaCalculator()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	fixed := make([]rule.ID, 0, len(cfg.FixedRules))
	for _, id := range cfg.FixedRules {
		fixed = append(fixed, rule.ID(id))
	}

	s := &Server{
		cfg:        cfg,
		matcher:    matching.NewService(matchCfg),
		reg:        game.NewRegistry(),
		messenger:  game.NewMessenger(opts.Publisher),
		rules:      rules,
		fixedRules: fixed,
		calc:       calc,
		ratings:    opts.Ratings,
		presence:   opts.Presence,
		rng:        rand.New(rand.NewSource(seed)),
		now:        now,
	}
	s.turnTimeouts = timeout.NewTurnCoordinator(func(sessionID string, actionNumber int) {
		s.reg.Submit(sessionID, game.TimeoutEvent{ExpectedAction: actionNumber, At: s.now()})
	})
	s.decisionTimeouts = timeout.NewDecisionCoordinator(func(sessionID string) {
		s.reg.Submit(sessionID, game.DecisionTimeoutEvent{TriggerAt: s.now()})
	})
	return s, nil
}

// EnqueueUser looks up the user's rating and creates a queue ticket.
// Rating lookup failures fall back to the configured default so a
// storage blip never blocks intake.
func (s *Server) EnqueueUser(ctx context.Context, userID string, modes []int) (*matching.Ticket, error) {
	rating := s.cfg.DefaultRating
	if s.ratings != nil {
		r, err := s.ratings.Rating(ctx, userID)
		if err != nil {
			obslog.L().Warn("rating_lookup_failed",
				zap.String("user_id", userID),
				zap.Error(err))
		} else {
			rating = r
		}
	}
	t := matching.NewTicket(userID, rating, modes, s.now())
	if err := s.matcher.Enqueue(t); err != nil {
		return nil, err
	}
	if s.presence != nil {
		// Queuing again means the user is back online.
		if err := s.presence.ClearDisconnected(ctx, userID); err != nil {
			obslog.L().Warn("presence_clear_failed",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}
	obslog.L().Info("ticket_enqueued",
		zap.String("ticket_id", t.ID),
		zap.String("user_id", userID),
		zap.Int("rating", rating),
		zap.Ints("modes", modes))
	return t, nil
}

// CancelTicket removes a queued ticket.
func (s *Server) CancelTicket(ticketID string) error {
	return s.matcher.Cancel(ticketID)
}

// QueueLen reports how many tickets are waiting.
func (s *Server) QueueLen() int {
	return s.matcher.Len()
}

// Submit routes an event into a live session's mailbox. It reports
// whether the session exists.
func (s *Server) Submit(sessionID string, ev fsm.Event, done ...func()) bool {
	return s.reg.Submit(sessionID, ev, done...)
}

// Disconnect reports a dropped connection to the user's session.
func (s *Server) Disconnect(sessionID, userID string) bool {
	return s.reg.Submit(sessionID, game.DisconnectEvent{UserID: userID, At: s.now()})
}

// Sessions reports how many sessions are live.
func (s *Server) Sessions() int {
	return s.reg.Len()
}

// MatchNow runs one matching pass and promotes every accepted group
// to a live session. It returns the created session IDs.
func (s *Server) MatchNow(now time.Time) []string {
	groups, reason := s.matcher.TryMatchOnce(now)
	if len(groups) == 0 {
		if reason != matching.FailureQueueEmpty {
			obslog.L().Debug("match_pass_empty", zap.String("reason", reason.String()))
		}
		return nil
	}
	var created []string
	for _, group := range groups {
		if id, ok := s.startSession(group); ok {
			created = append(created, id)
		}
	}
	return created
}

// startSession promotes a matched group into a running hub. Rule
// eligibility bands on the weakest participant so nobody plays under
// rules above their skill floor.
func (s *Server) startSession(group *matching.Group) (string, bool) {
	users := make([]string, 0, group.Headcount())
	skillRating := 0
	for i, t := range group.Tickets {
		users = append(users, t.UserID)
		if i == 0 || t.Rating < skillRating {
			skillRating = t.Rating
		}
	}

	selected, err := s.rules.Select(skillRating, s.fixedRules, s.rng)
	if err != nil {
		obslog.L().Error("rule_selection_failed", zap.Error(err))
		return "", false
	}
	engine := rule.NewEngine(selected, rule.NewScratch(s.rng.Int63()), skillRating)

	session, err := game.NewSession(users, s.cfg.BoardWidth, s.cfg.BoardHeight, s.cfg.TurnDuration, skillRating)
	if err != nil {
		obslog.L().Error("session_create_failed", zap.Error(err))
		return "", false
	}
	deps := game.Deps{
		Messenger:        s.messenger,
		TurnTimeouts:     s.turnTimeouts,
		DecisionTimeouts: s.decisionTimeouts,
		Rules:            engine,
		Calc:             s.calc,
		DecisionWindow:   s.cfg.DecisionDuration,
		Now:              s.now,
	}
	if s.ratings != nil {
		deps.Ratings = s.ratings
	}
	if s.presence != nil {
		deps.Presence = s.presence
	}
	hub, err := game.NewHub(session, deps)
	if err != nil {
		obslog.L().Error("hub_create_failed", zap.Error(err))
		return "", false
	}
	if err := hub.Start(); err != nil {
		obslog.L().Error("hub_start_failed", zap.Error(err))
		return "", false
	}
	s.reg.Ensure(hub)
	if s.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.presence.TrackSession(ctx, session.ID, users); err != nil {
			obslog.L().Warn("presence_track_failed", zap.Error(err))
		}
		cancel()
	}
	obslog.L().Info("session_created",
		zap.String("session_id", session.ID),
		zap.Strings("users", users),
		zap.Int("skill_rating", skillRating),
		zap.Strings("rules", ruleNames(engine)),
		zap.Float64("group_score", group.Score))
	return session.ID, true
}

func ruleNames(e *rule.Engine) []string {
	ids := e.Selected()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// Tick processes every live session once. Run drives this on the
// configured interval; transports embedding the engine may call it
// directly instead.
func (s *Server) Tick(now time.Time) {
	s.reg.Tick(now)
}

// Run drives the session tick loop and the matchmaking loop until the
// context is cancelled.
func (s *Server) Run(ctx context.Context) {
	go s.reg.Run(ctx, s.cfg.TickInterval)

	ticker := time.NewTicker(s.cfg.MatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.MatchNow(now)
		}
	}
}

// Close releases the timeout coordinators. Sessions already running
// keep their state but stop receiving timer events.
func (s *Server) Close() {
	s.turnTimeouts.Close()
	s.decisionTimeouts.Close()
}
