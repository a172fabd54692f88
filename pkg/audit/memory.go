package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*Record
	closed  bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Store(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NewStorageError("memory", "store", ErrClosed)
	}
	cp := *record
	s.records = append(s.records, &cp)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, q *Query) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, NewStorageError("memory", "query", ErrClosed)
	}

	var out []*Record
	for _, r := range s.records {
		if q.matches(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if q != nil {
		if q.Offset >= len(out) {
			return []*Record{}, nil
		}
		out = out[q.Offset:]
		if q.Limit > 0 && q.Limit < len(out) {
			out = out[:q.Limit]
		}
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, q *Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, NewStorageError("memory", "count", ErrClosed)
	}
	var n int64
	for _, r := range s.records {
		if q.matches(r) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, NewStorageError("memory", "delete", ErrClosed)
	}
	kept := s.records[:0]
	var deleted int64
	for _, r := range s.records {
		if r.CreatedAt.Before(t) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return deleted, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return NewStorageError("memory", "ping", ErrClosed)
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.records = nil
	s.mu.Unlock()
	return nil
}
