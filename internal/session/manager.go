package session

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/DeusData/cypher-builder/internal/schema"
)

// Manager owns the open sessions.
type Manager struct {
	mu       sync.RWMutex
	opts     Options
	sessions map[string]*Session
}

// NewManager creates an empty manager. opts applies to every new session.
func NewManager(opts Options) *Manager {
	return &Manager{opts: opts, sessions: make(map[string]*Session)}
}

// Create opens a session with a random id.
func (m *Manager) Create() *Session {
	m.mu.Lock()
	opts := m.opts
	m.mu.Unlock()

	s := New(uuid.NewString(), opts)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	opts.Metrics.SessionOpened()
	slog.Info("session.create", "id", s.ID)
	return s
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	return s, nil
}

// Close removes and stops the session with id.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	s.Close()
	m.opts.Metrics.SessionClosed()
	return nil
}

// IDs lists the open sessions in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SetSchema makes sc the schema of new sessions and installs it in every
// open one.
func (m *Manager) SetSchema(sc *schema.Schema) {
	m.mu.Lock()
	m.opts.Schema = sc
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	for _, s := range open {
		s.SetSchema(sc)
	}
}

// CloseAll stops every session.
func (m *Manager) CloseAll() {
	for _, id := range m.IDs() {
		_ = m.Close(id)
	}
}
