package fieldconfig

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileSource reads a field document from disk. With watching enabled, the
// document is re-read whenever it changes and the last valid version keeps
// being served if a new version fails to parse.
type FileSource struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	current *Config

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewFileSource creates a file source. The document is read eagerly so a
// broken file fails startup.
func NewFileSource(path string, watch bool) (*FileSource, error) {
	s := &FileSource{
		path:   path,
		logger: slog.Default().With("component", "fieldconfig.file"),
	}
	cfg, err := s.read()
	if err != nil {
		return nil, err
	}
	s.current = &cfg

	if watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create file watcher: %w", err)
		}
		// Watch the directory: editors and config managers replace files
		// by rename, which drops a watch on the file itself.
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
		}
		s.watcher = watcher
		s.stopCh = make(chan struct{})
		s.doneCh = make(chan struct{})
		go s.watchLoop()
	}

	s.logger.Info("field document loaded",
		"path", path,
		"fields", len(cfg.Fields),
		"watch", watch,
	)
	return s, nil
}

// Load returns the current document. Without watching, the file is re-read
// on every call.
func (s *FileSource) Load(ctx context.Context) (Config, error) {
	if s.watcher == nil {
		return s.read()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Config{Fields: append([]string{}, s.current.Fields...)}, nil
}

// Name returns "file".
func (s *FileSource) Name() string { return "file" }

// Close stops watching.
func (s *FileSource) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.stopCh)
	err := s.watcher.Close()
	<-s.doneCh
	return err
}

func (s *FileSource) read() (Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read field document %q: %w", s.path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("field document %q: %w", s.path, err)
	}
	return cfg, nil
}

func (s *FileSource) reload() {
	cfg, err := s.read()
	if err != nil {
		s.logger.Warn("field document reload failed, keeping previous version",
			"path", s.path,
			"error", err,
		)
		return
	}
	s.mu.Lock()
	s.current = &cfg
	s.mu.Unlock()

	s.logger.Info("field document reloaded", "path", s.path, "fields", len(cfg.Fields))
}

func (s *FileSource) watchLoop() {
	defer close(s.doneCh)
	target := filepath.Clean(s.path)
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				s.reload()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("file watcher error", "error", err)

		case <-s.stopCh:
			return
		}
	}
}
