package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Pruner deletes records older than the retention period.
type Pruner struct {
	store         Store
	retentionDays int
	metrics       Metrics
	now           func() time.Time
	logger        *slog.Logger
}

// NewPruner creates a Pruner. retentionDays of 0 keeps records forever.
func NewPruner(store Store, retentionDays int, metrics Metrics) *Pruner {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Pruner{
		store:         store,
		retentionDays: retentionDays,
		metrics:       metrics,
		now:           time.Now,
		logger:        slog.Default().With("component", "audit.retention"),
	}
}

// RetentionDays returns the configured retention period.
func (p *Pruner) RetentionDays() int { return p.retentionDays }

// Prune deletes expired records and returns how many were removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.retentionDays <= 0 {
		p.logger.Debug("retention disabled, nothing to prune")
		return 0, nil
	}

	cutoff := p.now().AddDate(0, 0, -p.retentionDays)
	deleted, err := p.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune records before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	p.metrics.RecordAuditPruned(deleted)

	if deleted > 0 {
		p.logger.Info("audit pruning completed",
			"deleted_count", deleted,
			"retention_days", p.retentionDays,
		)
	} else {
		p.logger.Debug("no records pruned", "retention_days", p.retentionDays)
	}
	return deleted, nil
}
