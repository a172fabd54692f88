package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeMetrics struct {
	mu     sync.Mutex
	writes map[string]int
	pruned int64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{writes: make(map[string]int)}
}

func (m *fakeMetrics) RecordAuditWrite(status string) {
	m.mu.Lock()
	m.writes[status]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordAuditPruned(n int64) {
	m.mu.Lock()
	m.pruned += n
	m.mu.Unlock()
}

func (m *fakeMetrics) count(status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[status]
}

type failingStore struct {
	*MemoryStore
}

func (failingStore) Store(context.Context, *Record) error {
	return NewStorageError("fake", "store", errors.New("disk full"))
}

func TestRecorderWritesAndDrains(t *testing.T) {
	store := NewMemoryStore()
	metrics := newFakeMetrics()
	rec := NewRecorder(store, RecorderConfig{Buffer: 16, Metrics: metrics})

	for i := 0; i < 5; i++ {
		if err := rec.Record(context.Background(), Record{RequestID: "req", Action: ActionAnonymize, Status: StatusSuccess}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	rec.Close()

	got, err := store.Query(context.Background(), nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("stored %d records, want 5", len(got))
	}
	for _, r := range got {
		if r.ID == "" || r.CreatedAt.IsZero() {
			t.Errorf("record missing generated fields: %+v", r)
		}
	}
	if metrics.count(StatusSuccess) != 5 {
		t.Errorf("success writes = %d, want 5", metrics.count(StatusSuccess))
	}
}

func TestRecorderKeepsExplicitID(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(store, RecorderConfig{})
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec.Record(context.Background(), Record{ID: "fixed", CreatedAt: created, Action: ActionDeanonymize, Status: StatusSuccess})
	rec.Close()

	got, _ := store.Query(context.Background(), nil)
	if len(got) != 1 || got[0].ID != "fixed" || !got[0].CreatedAt.Equal(created) {
		t.Errorf("got %+v", got)
	}
}

func TestRecorderStoreFailure(t *testing.T) {
	metrics := newFakeMetrics()
	rec := NewRecorder(failingStore{NewMemoryStore()}, RecorderConfig{Metrics: metrics})
	if err := rec.Record(context.Background(), Record{Action: ActionAnonymize, Status: StatusSuccess}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	rec.Close()
	if metrics.count(StatusError) != 1 {
		t.Errorf("error writes = %d, want 1", metrics.count(StatusError))
	}
}

func TestRecorderAfterClose(t *testing.T) {
	rec := NewRecorder(NewMemoryStore(), RecorderConfig{})
	rec.Close()
	rec.Close()
	if err := rec.Record(context.Background(), Record{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Record after Close = %v, want ErrClosed", err)
	}
}
