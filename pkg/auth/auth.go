package auth

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"notepad/pkg/models"
	"notepad/pkg/utils"
)

// DefaultSessionTimeout applies when no timeout is configured
const DefaultSessionTimeout = 30 * time.Minute

// SessionCookie is the cookie carrying the session token
const SessionCookie = "session"

// Manager handles session management
type Manager struct {
	sessions      map[string]*models.Session
	sessionsMutex sync.RWMutex
	timeout       time.Duration
	now           func() time.Time
}

// NewManager creates a new session manager. Sessions slide: each
// successful lookup extends the expiry by timeout.
func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	return &Manager{
		sessions: make(map[string]*models.Session),
		timeout:  timeout,
		now:      time.Now,
	}
}

// Timeout returns the session lifetime
func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

// CreateSession creates a new session for an authenticated user
func (m *Manager) CreateSession(username string) *models.Session {
	session := &models.Session{
		Token:     utils.GenerateSessionID(),
		Username:  username,
		ExpiresAt: m.now().Add(m.timeout),
	}

	m.sessionsMutex.Lock()
	m.sessions[session.Token] = session
	m.sessionsMutex.Unlock()

	return copySession(session)
}

// Lookup validates a token and extends its session
func (m *Manager) Lookup(token string) *models.Session {
	if token == "" {
		return nil
	}
	now := m.now()

	m.sessionsMutex.Lock()
	defer m.sessionsMutex.Unlock()

	session, exists := m.sessions[token]
	if !exists {
		return nil
	}
	if session.Expired(now) {
		delete(m.sessions, token)
		return nil
	}

	session.ExpiresAt = now.Add(m.timeout)
	return copySession(session)
}

// TokenFromRequest reads a bearer token, falling back to the session cookie
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// IsAuthenticated checks if the request has a valid session
func (m *Manager) IsAuthenticated(r *http.Request) *models.Session {
	return m.Lookup(TokenFromRequest(r))
}

// DeleteSession removes a session (logout)
func (m *Manager) DeleteSession(token string) bool {
	m.sessionsMutex.Lock()
	defer m.sessionsMutex.Unlock()

	_, exists := m.sessions[token]
	delete(m.sessions, token)
	return exists
}

// DeleteUserSessions ends every session of username
func (m *Manager) DeleteUserSessions(username string) int {
	m.sessionsMutex.Lock()
	defer m.sessionsMutex.Unlock()

	removed := 0
	for token, session := range m.sessions {
		if session.Username == username {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed
}

// Cleanup drops expired sessions and returns how many were removed
func (m *Manager) Cleanup() int {
	now := m.now()

	m.sessionsMutex.Lock()
	defer m.sessionsMutex.Unlock()

	removed := 0
	for token, session := range m.sessions {
		if session.Expired(now) {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.sessionsMutex.RLock()
	defer m.sessionsMutex.RUnlock()
	return len(m.sessions)
}

func copySession(s *models.Session) *models.Session {
	c := *s
	return &c
}
