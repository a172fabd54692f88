package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler prunes the trail on a cron expression. Runs never overlap: a
// tick that arrives while a prune is still deleting is skipped.
type Scheduler struct {
	pruner   *Pruner
	schedule string
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	last    PruneRun
	running bool
}

// PruneRun describes the most recent scheduled prune.
type PruneRun struct {
	At      time.Time
	Deleted int64
	Err     error
}

// NewScheduler creates a Scheduler. An empty schedule disables it.
func NewScheduler(pruner *Pruner, schedule string) *Scheduler {
	logger := slog.Default().With("component", "audit.scheduler")
	cronLog := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	return &Scheduler{
		pruner:   pruner,
		schedule: schedule,
		logger:   logger,
		cron:     cron.New(cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog))),
	}
}

// Start adds the prune job and starts the runner, which stops when ctx is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("retention scheduler already running")
	}
	if s.schedule == "" {
		s.logger.Info("no prune schedule, retention runs only on demand")
		return nil
	}
	id, err := s.cron.AddFunc(s.schedule, func() { s.runPruning(ctx) })
	if err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", s.schedule, err)
	}
	s.entry = id
	s.cron.Start()
	s.running = true
	s.logger.Info("retention scheduler started",
		"schedule", s.schedule,
		"retention_days", s.pruner.RetentionDays(),
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Scheduler) runPruning(ctx context.Context) {
	start := time.Now()
	deleted, err := s.pruner.Prune(ctx)

	s.mu.Lock()
	s.last = PruneRun{At: start, Deleted: deleted, Err: err}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled pruning failed", "error", err)
		return
	}
	s.logger.Info("scheduled pruning completed",
		"deleted_count", deleted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Stop halts the runner, waiting for an in-progress prune.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cron.Remove(s.entry)
	stopped := s.cron.Stop()
	s.mu.Unlock()

	<-stopped.Done()
	s.logger.Info("retention scheduler stopped")
}

// IsRunning reports whether the runner is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled prune, or the zero time when stopped.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// LastRun returns the most recent scheduled prune. At is zero before the
// first one.
func (s *Scheduler) LastRun() PruneRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
