package fieldconfig

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// cachedLoader memoizes a remote fetch for ttl. When a refresh fails and a
// previous document exists, the stale document is served and the error is
// logged.
type cachedLoader struct {
	ttl    time.Duration
	fetch  func(ctx context.Context) (Config, error)
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	cfg     *Config
	fetched time.Time
}

func newCachedLoader(ttl time.Duration, logger *slog.Logger, fetch func(ctx context.Context) (Config, error)) *cachedLoader {
	return &cachedLoader{ttl: ttl, fetch: fetch, logger: logger, now: time.Now}
}

func (c *cachedLoader) load(ctx context.Context) (Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg != nil && c.ttl > 0 && c.now().Sub(c.fetched) < c.ttl {
		return copyConfig(*c.cfg), nil
	}

	cfg, err := c.fetch(ctx)
	if err != nil {
		if c.cfg != nil {
			c.logger.Warn("field document refresh failed, serving cached version", "error", err)
			return copyConfig(*c.cfg), nil
		}
		return Config{}, err
	}
	c.cfg = &cfg
	c.fetched = c.now()
	return copyConfig(cfg), nil
}

func copyConfig(cfg Config) Config {
	return Config{Fields: append([]string{}, cfg.Fields...)}
}
