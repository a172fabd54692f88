package limits

import (
	"log/slog"
	"sync"
	"time"

	"anymouse-hq/anymouse/pkg/config"
)

// Manager holds one Limiter per caller.
type Manager struct {
	cfg config.RateLimitConfig

	mu       sync.Mutex
	limiters map[string]*Limiter

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	logger   *slog.Logger
}

// NewManager starts a Manager. Callers idle for cfg.IdleTTL are evicted by a
// background sweep stopped by Close.
func NewManager(cfg config.RateLimitConfig) *Manager {
	m := &Manager{
		cfg:      cfg,
		limiters: make(map[string]*Limiter),
		stop:     make(chan struct{}),
		logger:   slog.Default().With("component", "limits"),
	}
	if cfg.IdleTTL > 0 {
		m.wg.Add(1)
		go m.sweepLoop(cfg.IdleTTL)
	}
	return m
}

// Limiter returns the limiter for key, creating it on first use.
func (m *Manager) Limiter(key string) *Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.limiters[key]
	if !ok {
		l = NewLimiter(m.cfg)
		m.limiters[key] = l
	}
	return l
}

// Len returns the number of tracked callers.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.limiters)
}

// Sweep evicts callers unused since before cutoff with nothing in flight,
// returning how many were removed.
func (m *Manager) Sweep(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key, l := range m.limiters {
		if l.InFlight() == 0 && l.idleSince().Before(cutoff) {
			delete(m.limiters, key)
			n++
		}
	}
	return n
}

func (m *Manager) sweepLoop(ttl time.Duration) {
	defer m.wg.Done()
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			if n := m.Sweep(now.Add(-ttl)); n > 0 {
				m.logger.Debug("evicted idle rate limiters", "count", n)
			}
		}
	}
}

// Close stops the sweep. It is safe to call more than once.
func (m *Manager) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()
	return nil
}
