package anonymize

import (
	"context"
	"slices"
	"sync"
	"time"

	"veil/pkg/domain"
	"veil/pkg/platform/sentinel"
)

// InMemoryStore keeps records in a map guarded by a RWMutex.
type InMemoryStore struct {
	mu         sync.RWMutex
	records    map[domain.RecordID]*Record
	successors map[domain.RecordID]domain.RecordID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records:    make(map[domain.RecordID]*Record),
		successors: make(map[domain.RecordID]domain.RecordID),
	}
}

func cloneRecord(r *Record) *Record {
	out := *r
	out.Envelope = r.Envelope.Clone()
	out.Classification.Categories = slices.Clone(r.Classification.Categories)
	return &out
}

func (s *InMemoryStore) Save(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; exists {
		return sentinel.ErrConflict
	}
	if rec.Supersedes() {
		if _, taken := s.successors[rec.SupersedesID]; taken {
			return sentinel.ErrSuperseded
		}
		s.successors[rec.SupersedesID] = rec.ID
	}
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.RecordID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if rec.Supersedes() {
		delete(s.successors, rec.SupersedesID)
	}
	delete(s.records, id)
	return nil
}

func (s *InMemoryStore) ListCreatedBefore(_ context.Context, before time.Time) ([]Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Meta
	for _, rec := range s.records {
		if rec.CreatedAt.Before(before) {
			out = append(out, rec.Meta())
		}
	}
	slices.SortFunc(out, func(a, b Meta) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

// Tamper overwrites the stored envelope in place. Tests use it to simulate
// at-rest corruption.
func (s *InMemoryStore) Tamper(id domain.RecordID, mutate func(*Record)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if ok {
		mutate(rec)
	}
	return ok
}

func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
