package session

import (
	"context"
	"sync"
	"time"

	"levelquiz/internal/models"
)

// MemoryStore keeps sessions in process memory. Sessions are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[models.UserID]*models.Session
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[models.UserID]*models.Session)}
}

func (m *MemoryStore) Get(_ context.Context, userID models.UserID) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, nil
	}
	return clone(s), nil
}

func (m *MemoryStore) Save(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.UserID] = clone(s)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID models.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// Len returns the number of live sessions
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// PurgeStale drops sessions with no activity since cutoff and returns how
// many were removed. Ended sessions are still waiting for their result to be
// written and are never dropped.
func (m *MemoryStore) PurgeStale(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.Ended() || !s.IdleSince().Before(cutoff) {
			continue
		}
		delete(m.sessions, id)
		removed++
	}
	return removed
}
