package matching

import (
	"errors"
	"testing"
	"time"
)

func TestEnqueueRejectsDuplicateUser(t *testing.T) {
	s := NewService(DefaultConfig())
	now := time.Now()
	if err := s.Enqueue(NewTicket("u1", 1500, []int{2}, now)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	err := s.Enqueue(NewTicket("u1", 1500, []int{2}, now))
	if !errors.Is(err, ErrAlreadyQueued) {
		t.Fatalf("expected ErrAlreadyQueued, got %v", err)
	}
}

func TestCancelRemovesTicketEverywhere(t *testing.T) {
	s := NewService(DefaultConfig())
	now := time.Now()
	a := NewTicket("u1", 1500, []int{2}, now)
	b := NewTicket("u2", 1500, []int{2}, now)
	if err := s.Enqueue(a); err != nil {
		t.Fatalf("enqueue a: %v", err)
	}
	if err := s.Enqueue(b); err != nil {
		t.Fatalf("enqueue b: %v", err)
	}
	if err := s.Cancel(a.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := s.Cancel(a.ID); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("second cancel should fail, got %v", err)
	}
	groups, _ := s.TryMatchOnce(now)
	if len(groups) != 0 {
		t.Fatalf("cancelled ticket must not be matched, got %d groups", len(groups))
	}
	// user can re-queue after cancel
	if err := s.Enqueue(NewTicket("u1", 1500, []int{2}, now)); err != nil {
		t.Fatalf("re-enqueue after cancel: %v", err)
	}
}

func TestEqualRatingsMatchImmediately(t *testing.T) {
	s := NewService(DefaultConfig())
	now := time.Now()
	for _, u := range []string{"u1", "u2", "u3", "u4"} {
		if err := s.Enqueue(NewTicket(u, 1500, []int{4}, now)); err != nil {
			t.Fatalf("enqueue %s: %v", u, err)
		}
	}
	groups, _ := s.TryMatchOnce(now)
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	g := groups[0]
	if g.Headcount() != 4 {
		t.Fatalf("headcount = %d, want 4", g.Headcount())
	}
	if g.Score != 10120 {
		t.Fatalf("score = %v, want 10120", g.Score)
	}
	if s.Len() != 0 {
		t.Fatalf("matched tickets must leave the queue, %d remain", s.Len())
	}
}

func TestPrefersLargerHeadcount(t *testing.T) {
	s := NewService(DefaultConfig())
	now := time.Now()
	for _, u := range []string{"u1", "u2", "u3"} {
		if err := s.Enqueue(NewTicket(u, 1200, []int{2, 3}, now)); err != nil {
			t.Fatalf("enqueue %s: %v", u, err)
		}
	}
	groups, _ := s.TryMatchOnce(now)
	if len(groups) != 1 || groups[0].Headcount() != 3 {
		t.Fatalf("expected one 3-player group, got %v", groups)
	}
}

func TestModeMismatchNeverMatches(t *testing.T) {
	s := NewService(DefaultConfig())
	now := time.Now()
	if err := s.Enqueue(NewTicket("u1", 1500, []int{2}, now)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := s.Enqueue(NewTicket("u2", 1500, []int{3}, now)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	for i := 0; i < 50; i++ {
		if groups, _ := s.TryMatchOnce(now); len(groups) != 0 {
			t.Fatalf("pass %d matched tickets with disjoint modes", i)
		}
	}
	if s.Len() != 2 {
		t.Fatalf("both tickets should still be queued")
	}
}

func TestCreditGrowsOncePerFailedPass(t *testing.T) {
	s := NewService(DefaultConfig())
	now := time.Now()
	a := NewTicket("u1", 1000, []int{2}, now)
	b := NewTicket("u2", 3000, []int{2}, now)
	if err := s.Enqueue(a); err != nil {
		t.Fatalf("enqueue a: %v", err)
	}
	if err := s.Enqueue(b); err != nil {
		t.Fatalf("enqueue b: %v", err)
	}
	if got := s.Credit(a.ID); got != 0 {
		t.Fatalf("fresh ticket credit = %d, want 0", got)
	}
	for pass := 1; pass <= 3; pass++ {
		if groups, _ := s.TryMatchOnce(now); len(groups) != 0 {
			t.Fatalf("pass %d unexpectedly matched", pass)
		}
		if got := s.Credit(a.ID); got != pass {
			t.Fatalf("after pass %d credit = %d, want %d", pass, got, pass)
		}
		if got := s.Credit(b.ID); got != pass {
			t.Fatalf("after pass %d credit = %d, want %d", pass, got, pass)
		}
	}
}

func TestDistantRatingsEventuallyMatch(t *testing.T) {
	s := NewService(DefaultConfig())
	now := time.Now()
	if err := s.Enqueue(NewTicket("u1", 1500, []int{2}, now)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := s.Enqueue(NewTicket("u2", 3000, []int{2}, now)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if groups, _ := s.TryMatchOnce(now); len(groups) != 0 {
		t.Fatalf("fresh distant tickets must not match on the first pass")
	}
	matchedAt := -1
	for pass := 2; pass <= 2000; pass++ {
		if groups, _ := s.TryMatchOnce(now); len(groups) == 1 {
			matchedAt = pass
			break
		}
	}
	if matchedAt < 0 {
		t.Fatalf("distant tickets never matched within 2000 passes")
	}
	if s.Len() != 0 {
		t.Fatalf("queue should drain after the late match")
	}
}

func TestClosestCandidateWins(t *testing.T) {
	s := NewService(DefaultConfig())
	now := time.Now()
	anchor := NewTicket("anchor", 1500, []int{2}, now.Add(-time.Minute))
	near := NewTicket("near", 1500, []int{2}, now)
	far := NewTicket("far", 1501, []int{2}, now)
	for _, tk := range []*Ticket{anchor, near, far} {
		if err := s.Enqueue(tk); err != nil {
			t.Fatalf("enqueue %s: %v", tk.UserID, err)
		}
	}
	groups, _ := s.TryMatchOnce(now)
	if len(groups) != 1 {
		t.Fatalf("expected one pair, got %d groups", len(groups))
	}
	users := map[string]bool{}
	for _, tk := range groups[0].Tickets {
		users[tk.UserID] = true
	}
	if !users["anchor"] || !users["near"] {
		t.Fatalf("anchor should pick the closest rating, got %v", users)
	}
	if s.Len() != 1 {
		t.Fatalf("the far ticket should stay queued")
	}
}

func TestFailureReasonsExplainEmptyPasses(t *testing.T) {
	s := NewService(DefaultConfig())
	now := time.Now()

	if _, reason := s.TryMatchOnce(now); reason != FailureQueueEmpty {
		t.Fatalf("empty queue reason = %v, want %v", reason, FailureQueueEmpty)
	}

	if err := s.Enqueue(NewTicket("lone", 1500, []int{2}, now)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, reason := s.TryMatchOnce(now); reason != FailureNoCandidates {
		t.Fatalf("lone ticket reason = %v, want %v", reason, FailureNoCandidates)
	}

	// In-window pair whose rating spread sinks the group score.
	s = NewService(DefaultConfig())
	if err := s.Enqueue(NewTicket("u1", 1500, []int{2}, now)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := s.Enqueue(NewTicket("u2", 1600, []int{2}, now)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, reason := s.TryMatchOnce(now); reason != FailureBelowScoreLimit {
		t.Fatalf("spread pair reason = %v, want %v", reason, FailureBelowScoreLimit)
	}

	s = NewService(DefaultConfig())
	if err := s.Enqueue(NewTicket("u1", 1500, []int{2}, now)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := s.Enqueue(NewTicket("u2", 1500, []int{2}, now)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if groups, reason := s.TryMatchOnce(now); len(groups) != 1 || reason != MatchedOK {
		t.Fatalf("equal pair should match, got %d groups reason %v", len(groups), reason)
	}
}

func TestLoadConfigMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig("testdata/does-not-exist.yaml")
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("missing file must keep defaults")
	}
}
