package server

import (
	"testing"
	"time"

	"github.com/mohammad-safakhou/sitesearch/internal/session"
)

func TestSessionManagerCapBoundsMap(t *testing.T) {
	m := NewSessionManager(session.Deps{})
	m.max = 8
	for i := 0; i < 1000; i++ {
		if s := m.Get(""); s == nil {
			t.Fatalf("expected a session on request %d", i)
		}
	}
	if got := m.Len(); got != 8 {
		t.Fatalf("expected session map capped at 8 after 1000 sid-less requests, got %d", got)
	}
}

func TestSessionManagerSweepsIdleSessions(t *testing.T) {
	m := NewSessionManager(session.Deps{})
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	stale := m.Get("")
	now = now.Add(m.idleTTL + time.Minute)
	fresh := m.Get("")

	if got := m.Len(); got != 1 {
		t.Fatalf("expected idle session swept, got %d live sessions", got)
	}
	if m.Get(fresh.ID()) != fresh {
		t.Fatalf("expected fresh session retained")
	}
	if m.Get(stale.ID()) == stale {
		t.Fatalf("expected stale session replaced, not resurrected")
	}
}

func TestSessionManagerTouchKeepsSessionAlive(t *testing.T) {
	m := NewSessionManager(session.Deps{})
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	s := m.Get("")
	for i := 0; i < 3; i++ {
		now = now.Add(m.idleTTL / 2)
		if m.Get(s.ID()) != s {
			t.Fatalf("expected regularly touched session to survive sweep %d", i)
		}
	}
}

func TestSessionManagerReusesKnownSid(t *testing.T) {
	m := NewSessionManager(session.Deps{})
	s := m.Get("")
	if m.Get(s.ID()) != s {
		t.Fatalf("expected same session for known sid")
	}
	if m.Len() != 1 {
		t.Fatalf("expected a single live session, got %d", m.Len())
	}
}
