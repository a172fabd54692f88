package audit

import (
	"context"
	"testing"
	"time"
)

func TestPrunerPrune(t *testing.T) {
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		retentionDays int
		wantDeleted   int64
		wantRemaining int64
	}{
		{"disabled", 0, 0, 4},
		{"one day", 1, 3, 1},
		{"two days", 2, 2, 2},
		{"long retention", 30, 0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			seed(t, store, now)
			metrics := newFakeMetrics()

			p := NewPruner(store, tt.retentionDays, metrics)
			p.now = func() time.Time { return now.Add(time.Minute) }

			deleted, err := p.Prune(context.Background())
			if err != nil {
				t.Fatalf("Prune: %v", err)
			}
			if deleted != tt.wantDeleted {
				t.Errorf("deleted = %d, want %d", deleted, tt.wantDeleted)
			}
			remaining, _ := store.Count(context.Background(), nil)
			if remaining != tt.wantRemaining {
				t.Errorf("remaining = %d, want %d", remaining, tt.wantRemaining)
			}
			if metrics.pruned != tt.wantDeleted {
				t.Errorf("pruned metric = %d, want %d", metrics.pruned, tt.wantDeleted)
			}
		})
	}
}

func TestPrunerStoreError(t *testing.T) {
	store := NewMemoryStore()
	store.Close()
	if _, err := NewPruner(store, 7, nil).Prune(context.Background()); err == nil {
		t.Error("expected error from closed store")
	}
}
