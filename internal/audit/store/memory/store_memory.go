package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"veil/internal/audit"
	"veil/pkg/domain"
)

// InMemoryStore is an append-only audit log with an index by anonymous id.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  uint64
	entries []audit.Entry
	bySubj  map[domain.AnonymousID][]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{bySubj: make(map[domain.AnonymousID][]int)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.bySubj = make(map[domain.AnonymousID][]int)
}

// Append assigns the next id and stores a copy of entry.
func (s *InMemoryStore) Append(_ context.Context, entry *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	entry.ID = s.nextID
	stored := clone(*entry)
	s.entries = append(s.entries, stored)
	if !stored.AnonymousID.IsNil() {
		s.bySubj[stored.AnonymousID] = append(s.bySubj[stored.AnonymousID], len(s.entries)-1)
	}
	return nil
}

func (s *InMemoryStore) ListRange(_ context.Context, start, end time.Time) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tf := audit.Timeframe{Start: start, End: end}
	var out []audit.Entry
	for _, e := range s.entries {
		if tf.Contains(e.Timestamp) {
			out = append(out, clone(e))
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListByAnonymousID(_ context.Context, anonymousID domain.AnonymousID) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.bySubj[anonymousID]
	out := make([]audit.Entry, 0, len(idx))
	for _, i := range idx {
		out = append(out, clone(s.entries[i]))
	}
	return out, nil
}

// DeleteBefore removes entries strictly older than cutoff and rebuilds the index.
func (s *InMemoryStore) DeleteBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	removed := 0
	for _, e := range s.entries {
		if e.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	s.bySubj = make(map[domain.AnonymousID][]int)
	for i, e := range s.entries {
		if !e.AnonymousID.IsNil() {
			s.bySubj[e.AnonymousID] = append(s.bySubj[e.AnonymousID], i)
		}
	}
	return removed, nil
}

// Len is the number of stored entries.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func clone(e audit.Entry) audit.Entry {
	e.ComplianceFlags = slices.Clone(e.ComplianceFlags)
	e.Metadata = maps.Clone(e.Metadata)
	return e
}
