// Package timeout schedules and validates per-session turn and decision
// deadlines. Callbacks fire on timer goroutines; callers are expected to
// hand the expiry back to the session's own event queue rather than act
// on it directly.
package timeout

import (
	"sync"
	"time"
)

// TurnExpiredFunc receives the session and the action number whose turn
// window elapsed.
type TurnExpiredFunc func(sessionID string, actionNumber int)

type turnEntry struct {
	timer        *time.Timer
	actionNumber int
}

// TurnCoordinator tracks at most one pending turn deadline per session.
// Scheduling a new deadline always cancels the previous one for that
// session, so a stale timer can never fire for a turn that has already
// advanced.
type TurnCoordinator struct {
	mu      sync.Mutex
	entries map[string]*turnEntry
	expired TurnExpiredFunc
	closed  bool
}

// NewTurnCoordinator creates a coordinator that invokes expired when a
// scheduled turn window elapses without being cleared.
func NewTurnCoordinator(expired TurnExpiredFunc) *TurnCoordinator {
	return &TurnCoordinator{
		entries: make(map[string]*turnEntry),
		expired: expired,
	}
}

// Schedule arms a deadline for the session's given action number,
// replacing any previously armed deadline for the session.
func (c *TurnCoordinator) Schedule(sessionID string, actionNumber int, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if prev, ok := c.entries[sessionID]; ok {
		prev.timer.Stop()
	}
	entry := &turnEntry{actionNumber: actionNumber}
	entry.timer = time.AfterFunc(d, func() {
		if !c.ClearIfMatches(sessionID, actionNumber) {
			return
		}
		c.expired(sessionID, actionNumber)
	})
	c.entries[sessionID] = entry
}

// Validate reports whether the session's armed deadline still belongs to
// the given action number.
func (c *TurnCoordinator) Validate(sessionID string, actionNumber int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[sessionID]
	return ok && entry.actionNumber == actionNumber
}

// ClearIfMatches disarms the session's deadline only when it belongs to
// the given action number. It reports whether a deadline was cleared.
func (c *TurnCoordinator) ClearIfMatches(sessionID string, actionNumber int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[sessionID]
	if !ok || entry.actionNumber != actionNumber {
		return false
	}
	entry.timer.Stop()
	delete(c.entries, sessionID)
	return true
}

// Cancel disarms whatever deadline the session holds, if any.
func (c *TurnCoordinator) Cancel(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[sessionID]; ok {
		entry.timer.Stop()
		delete(c.entries, sessionID)
	}
}

// Close cancels every armed deadline and rejects further scheduling.
func (c *TurnCoordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, entry := range c.entries {
		entry.timer.Stop()
		delete(c.entries, id)
	}
}
