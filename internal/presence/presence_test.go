package presence

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	m, err := NewManager(fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMarkAndClearDisconnected(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	got, err := m.IsDisconnected(ctx, "u1")
	if err != nil {
		t.Fatalf("IsDisconnected: %v", err)
	}
	if got {
		t.Fatalf("fresh user should not be flagged")
	}

	if err := m.MarkDisconnected(ctx, "u1"); err != nil {
		t.Fatalf("MarkDisconnected: %v", err)
	}
	got, err = m.IsDisconnected(ctx, "u1")
	if err != nil {
		t.Fatalf("IsDisconnected: %v", err)
	}
	if !got {
		t.Fatalf("flag should stick")
	}

	if err := m.ClearDisconnected(ctx, "u1"); err != nil {
		t.Fatalf("ClearDisconnected: %v", err)
	}
	got, err = m.IsDisconnected(ctx, "u1")
	if err != nil {
		t.Fatalf("IsDisconnected: %v", err)
	}
	if got {
		t.Fatalf("flag should be cleared")
	}
}

func TestSessionClosedClearsMemberFlags(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	users := []string{"u1", "u2"}
	if err := m.TrackSession(ctx, "s1", users); err != nil {
		t.Fatalf("TrackSession: %v", err)
	}
	for _, u := range users {
		if err := m.MarkDisconnected(ctx, u); err != nil {
			t.Fatalf("MarkDisconnected: %v", err)
		}
	}
	if err := m.SessionClosed(ctx, "s1", users); err != nil {
		t.Fatalf("SessionClosed: %v", err)
	}
	for _, u := range users {
		got, err := m.IsDisconnected(ctx, u)
		if err != nil {
			t.Fatalf("IsDisconnected: %v", err)
		}
		if got {
			t.Fatalf("teardown should clear %s", u)
		}
	}
}

func TestRejectsBadURL(t *testing.T) {
	if _, err := NewManager(""); err == nil {
		t.Fatalf("empty URL must error")
	}
	if _, err := NewManager("http://localhost:6379"); err == nil {
		t.Fatalf("non-redis scheme must error")
	}
}
