package timeout

import (
	"sync"
	"time"
)

// DecisionExpiredFunc receives the session whose post-game decision
// window elapsed.
type DecisionExpiredFunc func(sessionID string)

// DecisionCoordinator tracks at most one pending post-game decision
// deadline per session.
type DecisionCoordinator struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	expired DecisionExpiredFunc
	closed  bool
}

// NewDecisionCoordinator creates a coordinator that invokes expired when
// a decision window elapses without being cancelled.
func NewDecisionCoordinator(expired DecisionExpiredFunc) *DecisionCoordinator {
	return &DecisionCoordinator{
		timers:  make(map[string]*time.Timer),
		expired: expired,
	}
}

// Schedule arms the session's decision deadline, replacing any previous
// one.
func (c *DecisionCoordinator) Schedule(sessionID string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if prev, ok := c.timers[sessionID]; ok {
		prev.Stop()
	}
	c.timers[sessionID] = time.AfterFunc(d, func() {
		if !c.clear(sessionID) {
			return
		}
		c.expired(sessionID)
	})
}

// Cancel disarms the session's decision deadline, if any.
func (c *DecisionCoordinator) Cancel(sessionID string) {
	c.clear(sessionID)
}

func (c *DecisionCoordinator) clear(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer, ok := c.timers[sessionID]
	if !ok {
		return false
	}
	timer.Stop()
	delete(c.timers, sessionID)
	return true
}

// Close cancels every armed deadline and rejects further scheduling.
func (c *DecisionCoordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
}
