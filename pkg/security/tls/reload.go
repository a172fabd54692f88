package tls

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reloader serves a certificate pair and optionally reloads it when the
// files change.
type Reloader struct {
	certFile string
	keyFile  string
	logger   *slog.Logger

	mu   sync.RWMutex
	cert *tls.Certificate

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	done    chan struct{}
}

// NewReloader loads the pair. With watch set, the directories holding the
// files are watched and the pair is reloaded on change. A reload that fails
// keeps the previous certificate.
func NewReloader(certFile, keyFile string, watch bool) (*Reloader, error) {
	r := &Reloader{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   slog.Default().With("component", "tls"),
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	if !watch {
		return r, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create certificate watcher: %w", err)
	}
	dirs := map[string]bool{filepath.Dir(certFile): true, filepath.Dir(keyFile): true}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	r.watcher = watcher
	r.stopCh = make(chan struct{})
	r.done = make(chan struct{})
	go r.watchLoop()
	return r, nil
}

// GetCertificate is suitable for tls.Config.GetCertificate.
func (r *Reloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

// Close stops watching.
func (r *Reloader) Close() error {
	if r.watcher == nil {
		return nil
	}
	select {
	case <-r.stopCh:
		return nil
	default:
	}
	close(r.stopCh)
	err := r.watcher.Close()
	<-r.done
	return err
}

func (r *Reloader) reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("load certificate: %w", err)
	}
	leaf, err := leafOf(&cert)
	if err != nil {
		return err
	}
	now := time.Now()
	if err := validateAt(leaf, now); err != nil {
		return fmt.Errorf("certificate validation failed: %w", err)
	}
	cert.Leaf = leaf

	r.mu.Lock()
	r.cert = &cert
	r.mu.Unlock()

	if expiresSoon(leaf, now) {
		r.logger.Warn("certificate expiring soon",
			"subject", leaf.Subject.CommonName,
			"expires_at", leaf.NotAfter.Format(time.RFC3339),
		)
	} else {
		r.logger.Info("certificate loaded",
			"subject", leaf.Subject.CommonName,
			"expires_at", leaf.NotAfter.Format(time.RFC3339),
		)
	}
	return nil
}

func (r *Reloader) watchLoop() {
	defer close(r.done)
	certName, keyName := filepath.Clean(r.certFile), filepath.Clean(r.keyFile)
	for {
		select {
		case <-r.stopCh:
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Clean(event.Name)
			if name != certName && name != keyName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := r.reload(); err != nil {
				r.logger.Error("failed to reload certificate, keeping previous", "error", err)
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Error("certificate watcher error", "error", err)
		}
	}
}
