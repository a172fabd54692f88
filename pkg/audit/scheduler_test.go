package audit

import (
	"context"
	"testing"
	"time"
)

func TestSchedulerStart(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantErr     bool
		wantRunning bool
	}{
		{"daily", "0 3 * * *", false, true},
		{"descriptor", "@hourly", false, true},
		{"empty disables", "", false, false},
		{"invalid", "not a schedule", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(NewPruner(NewMemoryStore(), 7, nil), tt.schedule)
			err := s.Start(context.Background())
			defer s.Stop()

			if (err != nil) != tt.wantErr {
				t.Fatalf("Start error = %v, wantErr %v", err, tt.wantErr)
			}
			if s.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning = %v, want %v", s.IsRunning(), tt.wantRunning)
			}
			if tt.wantRunning && !s.NextRun().After(time.Now()) {
				t.Errorf("NextRun = %v, want a future time", s.NextRun())
			}
		})
	}
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(NewPruner(NewMemoryStore(), 7, nil), "@daily")
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.IsRunning() {
		t.Fatal("scheduler still running after cancel")
	}
	if !s.NextRun().IsZero() {
		t.Error("NextRun should be zero when stopped")
	}
}

func TestSchedulerRunPruning(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.Store(context.Background(), &Record{ID: "old", CreatedAt: now.AddDate(0, 0, -10)})
	store.Store(context.Background(), &Record{ID: "new", CreatedAt: now})

	s := NewScheduler(NewPruner(store, 7, nil), "@daily")
	s.runPruning(context.Background())

	n, _ := store.Count(context.Background(), nil)
	if n != 1 {
		t.Errorf("remaining = %d, want 1", n)
	}
	if last := s.LastRun(); last.Deleted != 1 || last.Err != nil || last.At.IsZero() {
		t.Errorf("LastRun = %+v", last)
	}
}
