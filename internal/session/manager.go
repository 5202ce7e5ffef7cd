package session

import (
	"context"
	"sync"
	"time"

	"urbangear/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager owns every live session. Sessions are created once per
// visit, looked up by opaque id, and evicted after sitting idle for
// the configured duration. Evicting a session closes its toast queue
// so no timers outlive it.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	toastTTL time.Duration
	idleTTL  time.Duration
	logger   *zap.Logger
}

// NewManager creates a session manager
func NewManager(toastTTL, idleTTL time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		toastTTL: toastTTL,
		idleTTL:  idleTTL,
		logger:   util.GetLogger(),
	}
}

// Create starts a new empty session and returns it
func (m *Manager) Create() *Session {
	sess := newSession(uuid.New().String(), m.toastTTL)

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	util.SessionsActive.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	m.logger.Info("Session created", zap.String("session_id", sess.ID))
	return sess
}

// Get looks up a session by id
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Remove evicts a single session and closes its toast queue
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		util.SessionsActive.Set(float64(len(m.sessions)))
	}
	m.mu.Unlock()

	if ok {
		sess.Close()
	}
}

// StartReaper evicts idle sessions until the context is cancelled
func (m *Manager) StartReaper(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.reap()
		}
	}
}

func (m *Manager) reap() {
	cutoff := time.Now().Add(-m.idleTTL)

	m.mu.Lock()
	var expired []*Session
	for id, sess := range m.sessions {
		if sess.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			expired = append(expired, sess)
		}
	}
	util.SessionsActive.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
		m.logger.Info("Session expired", zap.String("session_id", sess.ID))
	}
}

// Close evicts every session, cancelling all pending toast timers
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*Session)
	util.SessionsActive.Set(0)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}
