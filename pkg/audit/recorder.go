package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Metrics receives audit write and prune counts.
type Metrics interface {
	RecordAuditWrite(status string)
	RecordAuditPruned(n int64)
}

type nopMetrics struct{}

func (nopMetrics) RecordAuditWrite(string) {}
func (nopMetrics) RecordAuditPruned(int64) {}

// RecorderConfig configures a Recorder.
type RecorderConfig struct {
	// Buffer is the size of the async write queue.
	// Default: 1000
	Buffer int

	// WriteTimeout bounds enqueueing and each store write.
	// Default: 5 seconds
	WriteTimeout time.Duration

	Metrics Metrics
}

// Recorder writes records to a Store from a background worker so request
// handling never waits on storage.
type Recorder struct {
	store   Store
	config  RecorderConfig
	queue   chan *Record
	done    chan struct{}
	wg      sync.WaitGroup
	close   sync.Once
	metrics Metrics
	logger  *slog.Logger
}

// NewRecorder starts a Recorder writing to store.
func NewRecorder(store Store, cfg RecorderConfig) *Recorder {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1000
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	r := &Recorder{
		store:   store,
		config:  cfg,
		queue:   make(chan *Record, cfg.Buffer),
		done:    make(chan struct{}),
		metrics: cfg.Metrics,
		logger:  slog.Default().With("component", "audit.recorder"),
	}
	if r.metrics == nil {
		r.metrics = nopMetrics{}
	}

	r.wg.Add(1)
	go r.worker()
	return r
}

// Record enqueues a record. ID and CreatedAt are filled in when empty. A
// full queue blocks up to WriteTimeout, after which the record is dropped.
func (r *Recorder) Record(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	timer := time.NewTimer(r.config.WriteTimeout)
	defer timer.Stop()

	select {
	case <-r.done:
		return ErrClosed
	default:
	}

	select {
	case r.queue <- &rec:
		return nil
	case <-timer.C:
		r.metrics.RecordAuditWrite("dropped")
		r.logger.Error("audit queue full, dropping record",
			"record_id", rec.ID,
			"request_id", rec.RequestID,
			"capacity", r.config.Buffer,
		)
		return context.DeadlineExceeded
	case <-ctx.Done():
		r.metrics.RecordAuditWrite("dropped")
		return ctx.Err()
	case <-r.done:
		return ErrClosed
	}
}

// Close stops accepting records, drains the queue and waits for the worker.
// It does not close the store.
func (r *Recorder) Close() error {
	r.close.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	for {
		select {
		case rec := <-r.queue:
			r.write(rec)
		case <-r.done:
			for {
				select {
				case rec := <-r.queue:
					r.write(rec)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(rec *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.store.Store(ctx, rec); err != nil {
		r.metrics.RecordAuditWrite(StatusError)
		r.logger.Error("failed to write audit record",
			"record_id", rec.ID,
			"request_id", rec.RequestID,
			"error", err,
		)
		return
	}
	r.metrics.RecordAuditWrite(StatusSuccess)
}
