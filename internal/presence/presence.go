// Package presence mirrors player connection state into Redis so other
// server instances and the matchmaker can see who is reachable.
package presence

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sangyeons57/teamnova-omok-server-sub002/internal/obslog"
)

const disconnectTTL = 24 * time.Hour

// Manager tracks per-user connection flags and per-session membership.
type Manager struct {
	rdb *redis.Client
}

// NewManager connects to Redis and verifies the connection.
func NewManager(redisURL string) (*Manager, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for presence manager")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Manager{rdb: rdb}, nil
}

// NewManagerWithClient wraps an existing client; used by tests.
func NewManagerWithClient(rdb *redis.Client) *Manager {
	return &Manager{rdb: rdb}
}

func (m *Manager) Close() error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

// TrackSession records the session's participants so teardown can clear
// their state in one pass.
func (m *Manager) TrackSession(ctx context.Context, sessionID string, userIDs []string) error {
	if m == nil || m.rdb == nil {
		return fmt.Errorf("presence manager not initialized")
	}
	key := sessionKey(sessionID)
	members := make([]any, len(userIDs))
	for i, u := range userIDs {
		members[i] = u
	}
	if err := m.rdb.SAdd(ctx, key, members...).Err(); err != nil {
		return err
	}
	return m.rdb.Expire(ctx, key, disconnectTTL).Err()
}

// MarkDisconnected flags the user as dropped.
func (m *Manager) MarkDisconnected(ctx context.Context, userID string) error {
	if m == nil || m.rdb == nil {
		return fmt.Errorf("presence manager not initialized")
	}
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	if err := m.rdb.Set(ctx, disconnectKey(userID), "1", disconnectTTL).Err(); err != nil {
		return err
	}
	obslog.L().Debug("presence_disconnected", zap.String("user_id", userID))
	return nil
}

// ClearDisconnected removes the user's dropped flag, e.g. on reconnect.
func (m *Manager) ClearDisconnected(ctx context.Context, userID string) error {
	if m == nil || m.rdb == nil {
		return fmt.Errorf("presence manager not initialized")
	}
	return m.rdb.Del(ctx, disconnectKey(userID)).Err()
}

// IsDisconnected reports whether the user is currently flagged dropped.
func (m *Manager) IsDisconnected(ctx context.Context, userID string) (bool, error) {
	if m == nil || m.rdb == nil {
		return false, fmt.Errorf("presence manager not initialized")
	}
	n, err := m.rdb.Exists(ctx, disconnectKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SessionClosed clears the session record and every member's dropped
// flag.
func (m *Manager) SessionClosed(ctx context.Context, sessionID string, userIDs []string) error {
	if m == nil || m.rdb == nil {
		return fmt.Errorf("presence manager not initialized")
	}
	keys := []string{sessionKey(sessionID)}
	for _, u := range userIDs {
		keys = append(keys, disconnectKey(u))
	}
	if err := m.rdb.Del(ctx, keys...).Err(); err != nil {
		return err
	}
	obslog.L().Debug("presence_session_closed", zap.String("session_id", sessionID))
	return nil
}

func sessionKey(id string) string    { return "omok:session:" + strings.TrimSpace(id) }
func disconnectKey(id string) string { return "omok:disconnect:" + strings.TrimSpace(id) }

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
