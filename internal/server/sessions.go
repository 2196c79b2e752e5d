package server

import (
	"sync"
	"time"

	"github.com/mohammad-safakhou/sitesearch/internal/session"
)

const (
	// maxSessions bounds the per-process session map; the least recently
	// used session is closed and dropped on overflow.
	maxSessions = 512
	// sessionIdleTTL is how long an untouched session survives before a
	// later Get sweeps it out.
	sessionIdleTTL = 15 * time.Minute
)

type managedSession struct {
	sess     *session.Session
	lastSeen time.Time
}

// SessionManager hands out per-client sessions keyed by the sid the client
// carries between requests. Unknown or empty sids get a fresh session.
// The map is bounded: idle sessions expire after sessionIdleTTL and the
// oldest session is evicted once maxSessions is reached.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*managedSession
	deps     session.Deps
	max      int
	idleTTL  time.Duration
	now      func() time.Time
}

func NewSessionManager(deps session.Deps) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*managedSession),
		deps:     deps,
		max:      maxSessions,
		idleTTL:  sessionIdleTTL,
		now:      time.Now,
	}
}

// Get returns the session for sid, creating one when absent. The returned
// session's ID is authoritative; clients must echo it back. Every call
// sweeps expired sessions, so the map never grows past the cap even under
// a flood of sid-less requests.
func (m *SessionManager) Get(sid string) *session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweepLocked(now)
	if sid != "" {
		if ms, ok := m.sessions[sid]; ok {
			ms.lastSeen = now
			return ms.sess
		}
	}
	if len(m.sessions) >= m.max {
		m.evictOldestLocked()
	}
	s := session.New(m.deps, "")
	m.sessions[s.ID()] = &managedSession{sess: s, lastSeen: now}
	return s
}

// Len reports the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close shuts every session down.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ms := range m.sessions {
		ms.sess.Close()
	}
	m.sessions = make(map[string]*managedSession)
}

// sweepLocked drops sessions idle longer than the TTL. Caller holds m.mu.
func (m *SessionManager) sweepLocked(now time.Time) {
	for id, ms := range m.sessions {
		if now.Sub(ms.lastSeen) > m.idleTTL {
			ms.sess.Close()
			delete(m.sessions, id)
		}
	}
}

// evictOldestLocked closes and removes the least recently seen session.
// Caller holds m.mu.
func (m *SessionManager) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, ms := range m.sessions {
		if oldestID == "" || ms.lastSeen.Before(oldest) {
			oldestID = id
			oldest = ms.lastSeen
		}
	}
	if oldestID != "" {
		m.sessions[oldestID].sess.Close()
		delete(m.sessions, oldestID)
	}
}
