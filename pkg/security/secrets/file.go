package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileProvider reads secrets from one file per secret in a directory, the
// layout used by mounted Kubernetes secrets. Files must be 0600 or 0400.
type FileProvider struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	values  map[string]string
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	done    chan struct{}
}

// NewFileProvider creates a provider for dir. With watch set, cached
// values are dropped whenever a file in dir changes.
func NewFileProvider(dir string, watch bool) (*FileProvider, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat secrets directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("secrets path is not a directory: %s", dir)
	}

	p := &FileProvider{
		dir:    dir,
		logger: slog.Default().With("component", "secrets.file"),
		values: make(map[string]string),
	}
	if !watch {
		return p, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch secrets directory: %w", err)
	}
	p.watcher = watcher
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})
	go p.watchLoop()
	return p, nil
}

// GetSecret implements Provider.
func (p *FileProvider) GetSecret(_ context.Context, name string) (string, error) {
	p.mu.RLock()
	value, ok := p.values[name]
	p.mu.RUnlock()
	if ok {
		return value, nil
	}

	path, err := p.resolve(name)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("stat secret %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret %s is not a regular file", name)
	}
	if mode := info.Mode().Perm(); mode != 0600 && mode != 0400 {
		return "", fmt.Errorf("insecure permissions on secret %s: %o (expected 0600 or 0400)", name, mode)
	}

	// #nosec G304 - path is confined to dir by resolve
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read secret %s: %w", name, err)
	}
	value = strings.TrimSpace(string(data))

	p.mu.Lock()
	p.values[name] = value
	p.mu.Unlock()
	return value, nil
}

// Name implements Provider.
func (p *FileProvider) Name() string { return "file" }

// Refresh drops cached values.
func (p *FileProvider) Refresh(context.Context) error {
	p.mu.Lock()
	p.values = make(map[string]string)
	p.mu.Unlock()
	return nil
}

// Close stops the watcher.
func (p *FileProvider) Close() error {
	if p.watcher == nil {
		return nil
	}
	close(p.stopCh)
	err := p.watcher.Close()
	<-p.done
	return err
}

func (p *FileProvider) resolve(name string) (string, error) {
	base, err := filepath.Abs(p.dir)
	if err != nil {
		return "", fmt.Errorf("resolve secrets directory: %w", err)
	}
	path, err := filepath.Abs(filepath.Join(p.dir, name))
	if err != nil {
		return "", fmt.Errorf("resolve secret path: %w", err)
	}
	if !strings.HasPrefix(path, base+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid secret name %q: escapes secrets directory", name)
	}
	return path, nil
}

func (p *FileProvider) watchLoop() {
	defer close(p.done)
	for {
		select {
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			p.logger.Debug("secret file changed", "file", filepath.Base(event.Name), "op", event.Op.String())
			_ = p.Refresh(context.Background())
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("secrets watcher error", "error", err)
		case <-p.stopCh:
			return
		}
	}
}
