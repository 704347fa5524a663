package collector

import (
	"context"
	"sync"

	"github.com/aretw0/remotedev/pkg/domain"
)

// MemoryStore implements Store in memory.
// Safe for concurrent use.
type MemoryStore struct {
	mu         sync.RWMutex
	data       map[string]*Record
	maxRecords int
}

// NewMemoryStore creates an in-memory store. When maxRecords is positive the
// oldest records are dropped beyond that count.
func NewMemoryStore(maxRecords int) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*Record),
		maxRecords: maxRecords,
	}
}

// Save stores a copy of the record.
func (s *MemoryStore) Save(ctx context.Context, record *Record) error {
	copied := *record

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[record.ID] = &copied

	if s.maxRecords > 0 && len(s.data) > s.maxRecords {
		s.evictOldest(len(s.data) - s.maxRecords)
	}
	return nil
}

func (s *MemoryStore) evictOldest(n int) {
	for _, r := range s.sortedLocked()[len(s.data)-n:] {
		delete(s.data, r.ID)
	}
}

// Get returns a copy of the record.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[id]
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	ret := *r
	return &ret, nil
}

// List returns copies of the newest records.
func (s *MemoryStore) List(ctx context.Context, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := s.sortedLocked()
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]*Record, len(sorted))
	for i, r := range sorted {
		c := *r
		out[i] = &c
	}
	return out, nil
}

// sortedLocked returns the records newest first.
func (s *MemoryStore) sortedLocked() []*Record {
	out := make([]*Record, 0, len(s.data))
	for _, r := range s.data {
		out = append(out, r)
	}
	SortNewestFirst(out)
	return out
}
