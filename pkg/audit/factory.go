package audit

import (
	"fmt"

	"anymouse-hq/anymouse/pkg/config"
)

// NewStore builds the store selected by cfg.Backend.
func NewStore(cfg config.AuditConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case DriverCGO, DriverPure:
		return NewSQLStore(SQLiteConfig{
			Driver:       cfg.Backend,
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.Backend)
	}
}

// Trail bundles the store, recorder and retention scheduler of a running
// service.
type Trail struct {
	Store     Store
	Recorder  *Recorder
	Pruner    *Pruner
	Scheduler *Scheduler
}

// Open builds a Trail from cfg. The scheduler is created but not started.
func Open(cfg config.AuditConfig, metrics Metrics) (*Trail, error) {
	store, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}
	pruner := NewPruner(store, cfg.Retention.Days, metrics)
	return &Trail{
		Store: store,
		Recorder: NewRecorder(store, RecorderConfig{
			Buffer:       cfg.Buffer,
			WriteTimeout: cfg.WriteTimeout,
			Metrics:      metrics,
		}),
		Pruner:    pruner,
		Scheduler: NewScheduler(pruner, cfg.Retention.PruneSchedule),
	}, nil
}

// Close stops the scheduler, drains the recorder and closes the store.
func (t *Trail) Close() error {
	t.Scheduler.Stop()
	t.Recorder.Close()
	return t.Store.Close()
}
