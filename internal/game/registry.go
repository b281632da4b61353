package game

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/fsm"
	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/obslog"
)

// Registry is the arena that owns live session hubs by id. The periodic
// tick sweep is the single driver of every hub's Process.
type Registry struct {
	mu   sync.RWMutex
	hubs map[string]*Hub
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{hubs: make(map[string]*Hub)}
}

// Ensure adds the hub under its session id.
func (r *Registry) Ensure(h *Hub) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hubs[h.SessionID()] = h
}

// Find looks a hub up by session id.
func (r *Registry) Find(sessionID string) (*Hub, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hubs[sessionID]
	return h, ok
}

// Remove evicts the hub.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.hubs, sessionID)
}

// Len counts live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hubs)
}

// Submit routes an event to the named session's mailbox. Returns false
// when the session is gone.
func (r *Registry) Submit(sessionID string, ev fsm.Event, done ...func()) bool {
	h, ok := r.Find(sessionID)
	if !ok {
		return false
	}
	h.Submit(ev, done...)
	return true
}

// Tick processes every live session once and evicts the ones that
// reached their terminal phase.
func (r *Registry) Tick(now time.Time) {
	r.mu.RLock()
	hubs := make([]*Hub, 0, len(r.hubs))
	for _, h := range r.hubs {
		hubs = append(hubs, h)
	}
	r.mu.RUnlock()

	for _, h := range hubs {
		h.Process(now)
		if h.Done() {
			r.Remove(h.SessionID())
			obslog.L().Debug("session_evicted", zap.String("session_id", h.SessionID()))
		}
	}
}

// Run drives the tick sweep until the context is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Tick(now)
		}
	}
}
