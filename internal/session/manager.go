package session

import (
	"sync"
	"time"

	"campus/internal/attendance"
)

// Manager hands out one session per operator. The model is a single
// operator per client; concurrent saves for the same (course, date) from
// different operators are last-write-wins at the batch level.
type Manager struct {
	resolver RosterResolver
	store    attendance.Store
	timeout  time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
func NewManager(resolver RosterResolver, store attendance.Store, timeout time.Duration) *Manager {
	return &Manager{
		resolver: resolver,
		store:    store,
		timeout:  timeout,
		sessions: make(map[string]*Session),
	}
}

// ForOperator returns the operator's session, creating an empty one on
// first use.
func (m *Manager) ForOperator(operator string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[operator]; ok {
		return s
	}
	s := New(m.resolver, m.store, operator, m.timeout)
	m.sessions[operator] = s
	return s
}
