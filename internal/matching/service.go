package matching

import (
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/obslog"
)

var (
	// ErrAlreadyQueued is returned when a user enqueues twice.
	ErrAlreadyQueued = errors.New("matching: user already queued")
	// ErrTicketNotFound is returned when cancelling an unknown ticket.
	ErrTicketNotFound = errors.New("matching: ticket not found")
)

// FailureReason explains why an evaluation pass formed no group.
type FailureReason int

const (
	// MatchedOK means at least one group was formed.
	MatchedOK FailureReason = iota
	// FailureQueueEmpty means no tickets were waiting.
	FailureQueueEmpty
	// FailureNoCandidates means no anchor could fill any of its modes
	// from the tickets inside its rating window.
	FailureNoCandidates
	// FailureBelowScoreLimit means full groups formed but none cleared
	// the score limit.
	FailureBelowScoreLimit
)

func (r FailureReason) String() string {
	switch r {
	case MatchedOK:
		return "matched"
	case FailureQueueEmpty:
		return "queue_empty"
	case FailureNoCandidates:
		return "no_candidates"
	case FailureBelowScoreLimit:
		return "below_score_limit"
	default:
		return "unknown"
	}
}

// Group is an accepted set of tickets that will share one game session.
type Group struct {
	Tickets []*Ticket
	Score   float64
}

// Headcount returns the number of players in the group.
func (g *Group) Headcount() int { return len(g.Tickets) }

// Service owns the ticket queue and runs evaluation passes over it.
type Service struct {
	cfg Config

	mu     sync.Mutex
	queue  []*ticketInfo
	byUser map[string]*ticketInfo
}

// NewService creates an empty queue with the given tuning.
func NewService(cfg Config) *Service {
	return &Service{
		cfg:    cfg,
		byUser: make(map[string]*ticketInfo),
	}
}

// Enqueue adds the ticket to the queue. A user may hold at most one
// ticket at a time.
func (s *Service) Enqueue(t *Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUser[t.UserID]; ok {
		return ErrAlreadyQueued
	}
	info := &ticketInfo{ticket: t}
	s.queue = append(s.queue, info)
	s.byUser[t.UserID] = info
	obslog.L().Debug("match_ticket_enqueued",
		zap.String("ticket_id", t.ID),
		zap.String("user_id", t.UserID),
		zap.Int("rating", t.Rating))
	return nil
}

// Cancel removes the ticket from the queue. After Cancel returns, the
// ticket can no longer appear in any group.
func (s *Service) Cancel(ticketID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, info := range s.queue {
		if info.ticket.ID == ticketID {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			delete(s.byUser, info.ticket.UserID)
			obslog.L().Debug("match_ticket_cancelled", zap.String("ticket_id", ticketID))
			return nil
		}
	}
	return ErrTicketNotFound
}

// Len returns the number of queued tickets.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Credit returns the accumulated credit of a queued ticket, or -1 when
// the ticket is not queued.
func (s *Service) Credit(ticketID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, info := range s.queue {
		if info.ticket.ID == ticketID {
			return info.credit
		}
	}
	return -1
}

// TryMatchOnce runs one evaluation pass: anchors are visited oldest
// first, each tries to assemble the best-scoring group inside its rating
// window, and groups that clear the score limit are removed from the
// queue. Every ticket that survives the pass unmatched gains one credit.
// When no group forms, the reason says why.
func (s *Service) TryMatchOnce(now time.Time) ([]*Group, FailureReason) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var groups []*Group
	remaining := make([]*ticketInfo, len(s.queue))
	copy(remaining, s.queue)
	sort.SliceStable(remaining, func(i, j int) bool {
		return remaining[i].ticket.CreatedAt.Before(remaining[j].ticket.CreatedAt)
	})

	matched := make(map[string]bool)
	sawFullGroup := false
	for _, anchor := range remaining {
		if matched[anchor.ticket.ID] {
			continue
		}
		group, scoredFull := s.tryAnchor(anchor, remaining, matched, now)
		if scoredFull {
			sawFullGroup = true
		}
		if group == nil {
			continue
		}
		for _, t := range group.Tickets {
			matched[t.ID] = true
		}
		groups = append(groups, group)
		obslog.L().Info("match_group_formed",
			zap.Int("headcount", group.Headcount()),
			zap.Float64("score", group.Score))
	}

	if len(matched) > 0 {
		kept := s.queue[:0]
		for _, info := range s.queue {
			if matched[info.ticket.ID] {
				delete(s.byUser, info.ticket.UserID)
				continue
			}
			kept = append(kept, info)
		}
		s.queue = kept
	}
	for _, info := range s.queue {
		info.credit++
	}
	if len(groups) > 0 {
		return groups, MatchedOK
	}
	switch {
	case len(remaining) == 0:
		return nil, FailureQueueEmpty
	case sawFullGroup:
		return nil, FailureBelowScoreLimit
	default:
		return nil, FailureNoCandidates
	}
}

// tryAnchor assembles the best acceptable group around one anchor, or
// nil when no group clears the score limit. The second result reports
// whether at least one full-headcount group was scored at all, which
// separates a thin queue from a score-limit rejection.
func (s *Service) tryAnchor(anchor *ticketInfo, pool []*ticketInfo, matched map[string]bool, now time.Time) (*Group, bool) {
	window := s.window(anchor, now)

	var candidates []*ticketInfo
	for _, info := range pool {
		if info == anchor || matched[info.ticket.ID] {
			continue
		}
		if math.Abs(float64(info.ticket.Rating-anchor.ticket.Rating)) <= window {
			candidates = append(candidates, info)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		di := intAbs(candidates[i].ticket.Rating - anchor.ticket.Rating)
		dj := intAbs(candidates[j].ticket.Rating - anchor.ticket.Rating)
		if di != dj {
			return di < dj
		}
		if !candidates[i].ticket.CreatedAt.Equal(candidates[j].ticket.CreatedAt) {
			return candidates[i].ticket.CreatedAt.Before(candidates[j].ticket.CreatedAt)
		}
		return candidates[i].credit > candidates[j].credit
	})

	var best *Group
	scoredFull := false
	for _, headcount := range []int{4, 3, 2} {
		if !anchor.ticket.acceptsMode(headcount) {
			continue
		}
		members := []*ticketInfo{anchor}
		for _, cand := range candidates {
			if len(members) == headcount {
				break
			}
			if cand.ticket.acceptsMode(headcount) {
				members = append(members, cand)
			}
		}
		if len(members) != headcount {
			continue
		}
		scoredFull = true
		score := s.scoreGroup(members)
		if score < s.cfg.ScoreLimit {
			continue
		}
		if best == nil || score > best.Score {
			tickets := make([]*Ticket, len(members))
			for i, m := range members {
				tickets[i] = m.ticket
			}
			best = &Group{Tickets: tickets, Score: score}
		}
	}
	return best, scoredFull
}

// window is the rating distance the anchor will currently accept.
func (s *Service) window(info *ticketInfo, now time.Time) float64 {
	return s.cfg.BaseGap +
		s.cfg.TimeWeight*math.Sqrt(info.waitSeconds(now)) +
		s.cfg.CreditWeight*float64(info.credit)
}

// scoreGroup applies the acceptance formula to a candidate group.
func (s *Service) scoreGroup(members []*ticketInfo) float64 {
	minRating, maxRating := members[0].ticket.Rating, members[0].ticket.Rating
	sum := 0.0
	totalCredit := 0
	for _, m := range members {
		r := m.ticket.Rating
		if r < minRating {
			minRating = r
		}
		if r > maxRating {
			maxRating = r
		}
		sum += float64(r)
		totalCredit += m.credit
	}
	mean := sum / float64(len(members))
	variance := 0.0
	for _, m := range members {
		d := float64(m.ticket.Rating) - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(members)))

	score := s.cfg.BaseScore
	score += s.cfg.StddevWeight * stddev
	delta := float64(maxRating - minRating)
	if delta > s.cfg.BaseGap {
		score += s.cfg.DeltaPenaltyWeight * delta
	}
	score += s.cfg.GroupCreditWeight * float64(totalCredit)
	score += s.cfg.HeadcountWeight * float64(len(members))
	return score
}

func intAbs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
