package session

import (
	"context"
	"sync"
	"time"

	"veil/pkg/domain"
	"veil/pkg/platform/sentinel"
)

// InMemoryStore keeps sessions in a map guarded by a RWMutex.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*Session
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[domain.SessionID]*Session)}
}

func (s *InMemoryStore) Save(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.SessionID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return sess.Clone(), nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// ListExpired snapshots the ids of sessions expired as of now.
func (s *InMemoryStore) ListExpired(_ context.Context, now time.Time) ([]domain.SessionID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []domain.SessionID
	for id, sess := range s.sessions {
		if sess.IsExpired(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
