package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

var secretRef = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// Manager resolves secrets through an ordered list of providers.
type Manager struct {
	providers []Provider
	cache     *Cache
	logger    *slog.Logger
}

// NewManager creates a manager. Providers are tried in order.
func NewManager(providers []Provider, cacheCfg CacheConfig) *Manager {
	return &Manager{
		providers: providers,
		cache:     NewCache(cacheCfg),
		logger:    slog.Default().With("component", "secrets"),
	}
}

// GetSecret returns the first value any provider holds for name. A
// provider reporting ErrNotFound passes to the next one; any other error
// is remembered and returned if no provider succeeds.
func (m *Manager) GetSecret(ctx context.Context, name string) (string, error) {
	if v, ok := m.cache.Get(name); ok {
		return v, nil
	}

	var lastErr error
	for _, p := range m.providers {
		v, err := p.GetSecret(ctx, name)
		if err == nil {
			m.cache.Set(name, v)
			m.logger.Debug("secret resolved", "provider", p.Name(), "name", redactName(name))
			return v, nil
		}
		if !errors.Is(err, ErrNotFound) {
			m.logger.Warn("secret provider failed", "provider", p.Name(), "name", redactName(name), "error", err)
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("resolve secret %q: %w", name, lastErr)
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Resolve replaces every ${secret:name} reference in s. Unresolvable
// references are left in place and reported together.
func (m *Manager) Resolve(ctx context.Context, s string) (string, error) {
	if !strings.Contains(s, "${secret:") {
		return s, nil
	}
	var failed []string
	out := secretRef.ReplaceAllStringFunc(s, func(ref string) string {
		name := secretRef.FindStringSubmatch(ref)[1]
		v, err := m.GetSecret(ctx, name)
		if err != nil {
			failed = append(failed, err.Error())
			return ref
		}
		return v
	})
	if len(failed) > 0 {
		return out, fmt.Errorf("unresolved secret references: %s", strings.Join(failed, "; "))
	}
	return out, nil
}

// Refresh clears the cache and refreshes providers that keep their own.
func (m *Manager) Refresh(ctx context.Context) error {
	var errs []error
	for _, p := range m.providers {
		if r, ok := p.(Refresher); ok {
			if err := r.Refresh(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			}
		}
	}
	m.cache.Clear()
	return errors.Join(errs...)
}

// Close releases providers holding watchers.
func (m *Manager) Close() error {
	var errs []error
	for _, p := range m.providers {
		if c, ok := p.(interface{ Close() error }); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

func redactName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}
