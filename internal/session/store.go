package session

import (
	"context"
	"sync"
)

// Store хранит не больше одной активной сессии на пользователя.
// При двух параллельных диалогах одного пользователя выигрывает последняя запись.
type Store interface {
	Get(ctx context.Context, actorID int64) (*Session, bool)
	Put(ctx context.Context, s *Session)
	Delete(ctx context.Context, actorID int64)
}

type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*Session)}
}

func (m *MemoryStore) Get(_ context.Context, actorID int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[actorID]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

func (m *MemoryStore) Put(_ context.Context, s *Session) {
	if s == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ActorID] = s.Clone()
}

func (m *MemoryStore) Delete(_ context.Context, actorID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, actorID)
}

// Len — число активных сессий.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
