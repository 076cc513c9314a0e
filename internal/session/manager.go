package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Session struct {
	ID        string
	UserID    string
	Email     string
	Role      string
	ClientIP  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Manager keeps sessions in memory. Expiry is an idle timeout: every
// successful lookup pushes ExpiresAt forward.
type Manager struct {
	sessions map[string]*Session
	mu       sync.Mutex
	timeout  time.Duration
	now      func() time.Time
}

func NewManager(timeout time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		timeout:  timeout,
		now:      time.Now,
	}
}

func (m *Manager) CreateSession(userID, email, role, clientIP string) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Email:     email,
		Role:      role,
		ClientIP:  clientIP,
		CreatedAt: now,
		ExpiresAt: now.Add(m.timeout),
	}
	m.sessions[s.ID] = s
	return *s
}

// GetSession returns a live session and extends it. Expired sessions are
// removed and reported as missing.
func (m *Manager) GetSession(sessionID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	now := m.now()
	if now.After(s.ExpiresAt) {
		delete(m.sessions, sessionID)
		return Session{}, false
	}
	s.ExpiresAt = now.Add(m.timeout)
	return *s, true
}

// FindByUser returns the live session of userID, if any.
func (m *Manager) FindByUser(userID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, s := range m.sessions {
		if s.UserID == userID && !now.After(s.ExpiresAt) {
			return *s, true
		}
	}
	return Session{}, false
}

func (m *Manager) DeleteSession(sessionID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	delete(m.sessions, sessionID)
	return *s, true
}

// CleanupExpiredSessions drops expired sessions and returns how many went.
func (m *Manager) CleanupExpiredSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	now := m.now()
	for id, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
