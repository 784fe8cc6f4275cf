package session

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/MJE43/rolldown-trainer-go/internal/gamedata"
	"github.com/MJE43/rolldown-trainer-go/internal/rng"
)

// Manager owns the live sessions, keyed by id.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	log      *logrus.Logger
}

// NewManager creates an empty manager.
func NewManager(log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.New()
	}
	return &Manager{sessions: make(map[string]*Session), log: log}
}

// Create builds a new session and registers it.
func (m *Manager) Create(cfg Config, set *gamedata.SetData, src rng.Source) *Session {
	s := New(cfg, set, src, m.log)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	m.log.WithFields(logrus.Fields{
		"session": s.ID(),
		"level":   cfg.Level,
		"gold":    cfg.Gold,
	}).Info("session created")
	return s
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete removes a session. Unknown ids are ignored.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// IDs returns the ids of all live sessions.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	return out
}
