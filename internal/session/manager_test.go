package session

import (
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestManager(timeout time.Duration) (*Manager, *clock) {
	c := &clock{t: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	m := NewManager(timeout)
	m.now = c.now
	return m, c
}

func TestSessionLifecycle(t *testing.T) {
	m, c := newTestManager(30 * time.Minute)

	s := m.CreateSession("user-1", "clerk@quickbill.test", "revenue_officer", "10.0.0.5")
	if s.ID == "" || s.UserID != "user-1" {
		t.Fatalf("session = %+v", s)
	}
	other := m.CreateSession("user-2", "b@quickbill.test", "viewer", "")
	if other.ID == s.ID {
		t.Fatal("session ids must be unique")
	}

	c.t = c.t.Add(20 * time.Minute)
	got, ok := m.GetSession(s.ID)
	if !ok || got.Email != "clerk@quickbill.test" {
		t.Fatalf("GetSession = %+v, %v", got, ok)
	}

	// The lookup above extended the session; another 20 minutes is still live.
	c.t = c.t.Add(20 * time.Minute)
	if _, ok := m.GetSession(s.ID); !ok {
		t.Fatal("session expired despite activity")
	}
	if _, ok := m.FindByUser("user-1"); !ok {
		t.Fatal("FindByUser missed a live session")
	}

	if _, ok := m.DeleteSession(s.ID); !ok {
		t.Fatal("DeleteSession missed the session")
	}
	if _, ok := m.GetSession(s.ID); ok {
		t.Fatal("deleted session still resolves")
	}
}

func TestSessionExpiry(t *testing.T) {
	m, c := newTestManager(time.Minute)
	a := m.CreateSession("user-1", "", "", "")
	m.CreateSession("user-2", "", "", "")

	c.t = c.t.Add(2 * time.Minute)
	if _, ok := m.GetSession(a.ID); ok {
		t.Fatal("expired session resolved")
	}
	if _, ok := m.FindByUser("user-2"); ok {
		t.Fatal("FindByUser returned an expired session")
	}
	if removed := m.CleanupExpiredSessions(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if m.Count() != 0 {
		t.Fatalf("count = %d", m.Count())
	}
}
