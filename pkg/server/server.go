package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"anymouse-hq/anymouse/pkg/anonymize"
	"anymouse-hq/anymouse/pkg/api"
	"anymouse-hq/anymouse/pkg/audit"
	"anymouse-hq/anymouse/pkg/config"
	"anymouse-hq/anymouse/pkg/fieldconfig"
	"anymouse-hq/anymouse/pkg/limits"
	"anymouse-hq/anymouse/pkg/security/auth"
	"anymouse-hq/anymouse/pkg/security/secrets"
	sectls "anymouse-hq/anymouse/pkg/security/tls"
	"anymouse-hq/anymouse/pkg/telemetry/health"
	"anymouse-hq/anymouse/pkg/telemetry/metrics"
	"anymouse-hq/anymouse/pkg/telemetry/tracing"
)

// Server is the anonymization HTTP service.
type Server struct {
	cfg     *config.Config
	version string

	engine    *Engine
	fields    fieldconfig.Source
	trail     *audit.Trail
	tracer    *tracing.Tracer
	collector *metrics.Collector
	limiter   *limits.Manager
	health    *health.Checker
	handler   http.Handler

	tlsConfig *tls.Config
	closers   []io.Closer

	httpServer   *http.Server
	listener     net.Listener
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	closed       bool
	logger       *slog.Logger
}

// New builds every component described by cfg. Secret references in cfg
// are resolved in place. Components created before a failure are closed.
func New(ctx context.Context, cfg *config.Config, version string) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		version: version,
		logger:  slog.Default().With("component", "server"),
	}
	ok := false
	defer func() {
		if !ok {
			s.closeAll()
		}
	}()

	mgr, err := secrets.NewManagerFromConfig(ctx, cfg.Security.Secrets)
	if err != nil {
		return nil, fmt.Errorf("secrets: %w", err)
	}
	s.closers = append(s.closers, mgr)
	if err := secrets.ResolveConfig(ctx, mgr, cfg); err != nil {
		return nil, fmt.Errorf("resolve secrets: %w", err)
	}

	var (
		observer    anonymize.Observer
		httpMetrics api.HTTPMetrics
		auditMetric audit.Metrics
		limitMetric limits.Metrics
	)
	if cfg.Telemetry.Metrics.Enabled {
		s.collector = metrics.NewCollector(cfg.Telemetry.Metrics, nil)
		observer = s.collector
		httpMetrics = s.collector
		auditMetric = s.collector
		limitMetric = s.collector
	}

	s.tracer, err = tracing.New(ctx, cfg.Telemetry.Tracing, version)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	s.engine, err = NewEngine(cfg, observer)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, s.engine)
	s.logger.Info("recognizer selected",
		"mode", string(s.engine.Mode),
		"recognizer", s.engine.Recognizer.Name(),
	)

	s.fields, err = fieldconfig.NewSource(ctx, cfg.Fields)
	if err != nil {
		return nil, fmt.Errorf("field source: %w", err)
	}
	if c, ok := s.fields.(io.Closer); ok {
		s.closers = append(s.closers, c)
	}

	var recorder api.AuditRecorder
	if cfg.Audit.Enabled {
		s.trail, err = audit.Open(cfg.Audit, auditMetric)
		if err != nil {
			return nil, fmt.Errorf("audit: %w", err)
		}
		recorder = s.trail.Recorder
	}

	h, err := api.New(api.Config{
		Engine:       s.engine.Engine,
		Fields:       s.fields,
		Audit:        recorder,
		Tracer:       s.tracer,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})
	if err != nil {
		return nil, err
	}

	tlsCfg, reloader, err := sectls.ServerConfig(cfg.Security.TLS)
	if err != nil {
		return nil, fmt.Errorf("tls: %w", err)
	}
	if reloader != nil {
		s.closers = append(s.closers, reloader)
	}
	s.tlsConfig = tlsCfg

	if cfg.Security.RateLimit.Enabled {
		s.limiter = limits.NewManager(cfg.Security.RateLimit)
		s.closers = append(s.closers, s.limiter)
	}

	s.health = health.New(version, cfg.Telemetry.Health.CheckTimeout)
	s.registerChecks()

	s.handler = s.setupRoutes(h, httpMetrics, limitMetric)
	ok = true
	return s, nil
}

func (s *Server) registerChecks() {
	rec := s.engine.Recognizer
	s.health.Register("recognizer", func(context.Context) error {
		_, err := rec.Recognize("")
		return err
	})
	fields := s.fields
	s.health.Register("fields", func(ctx context.Context) error {
		_, err := fields.Load(ctx)
		return err
	})
	if s.trail != nil {
		store := s.trail.Store
		s.health.Register("audit", store.Ping)
	}
}

func (s *Server) setupRoutes(h *api.Handler, m api.HTTPMetrics, lm limits.Metrics) http.Handler {
	mux := http.NewServeMux()

	opts := api.RouteOptions{Metrics: m, Tracer: s.tracer}
	if s.cfg.Security.Authentication.Enabled {
		mw := auth.NewAPIKeyMiddleware(
			auth.NewAPIKeyValidatorFromConfig(s.cfg.Security.Authentication.Keys),
			auth.SourcesFromConfig(s.cfg.Security.Authentication.Sources),
		)
		opts.Auth = mw.Handle
	}
	if s.limiter != nil {
		opts.RateLimit = s.limiter.Middleware(lm)
	}
	h.Register(mux, opts)

	mux.Handle("GET "+s.cfg.Telemetry.Health.LivenessPath, s.health.LivenessHandler())
	mux.Handle("GET "+s.cfg.Telemetry.Health.ReadinessPath, s.health.ReadinessHandler())
	if s.collector != nil {
		mux.Handle("GET "+s.cfg.Telemetry.Metrics.Path, s.collector.Handler())
	}
	return mux
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Engine returns the engine serving requests.
func (s *Server) Engine() *Engine {
	return s.engine
}

// Start listens on the configured address and serves until ctx is
// cancelled or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Server.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled or Shutdown is called. It shuts
// the server down before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return errors.New("server is shut down")
	}
	if s.isRunning {
		s.mu.Unlock()
		_ = ln.Close()
		return errors.New("server is already running")
	}
	s.isRunning = true
	if s.tlsConfig != nil {
		ln = tls.NewListener(ln, s.tlsConfig)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:        s.handler,
		ReadTimeout:    s.cfg.Server.ReadTimeout,
		WriteTimeout:   s.cfg.Server.WriteTimeout,
		IdleTimeout:    s.cfg.Server.IdleTimeout,
		MaxHeaderBytes: s.cfg.Server.MaxHeaderBytes,
	}
	srv := s.httpServer
	s.mu.Unlock()

	if s.trail != nil {
		if err := s.trail.Scheduler.Start(ctx); err != nil {
			_ = s.Shutdown(context.Background())
			return fmt.Errorf("audit retention: %w", err)
		}
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting anonymization server",
			"address", ln.Addr().String(),
			"tls_enabled", s.tlsConfig != nil,
			"recognizer_mode", string(s.engine.Mode),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if ok {
			_ = s.Shutdown(context.Background())
			return err
		}
		// Shutdown was called directly.
		return nil
	}
}

// Addr returns the listener address once serving, or nil.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Shutdown stops accepting requests, drains in-flight ones within the
// configured shutdown timeout and closes every component. It is safe to
// call more than once and on a server that never started.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		srv := s.httpServer
		s.mu.RUnlock()

		if srv != nil {
			s.logger.Info("initiating graceful shutdown",
				"timeout", s.cfg.Server.ShutdownTimeout.String(),
			)
			shutdownCtx := ctx
			if s.cfg.Server.ShutdownTimeout > 0 {
				var cancel context.CancelFunc
				shutdownCtx, cancel = context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
				defer cancel()
			}
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		if err := s.tracer.Shutdown(ctx); err != nil {
			s.logger.Warn("tracer shutdown failed", "error", err)
		}
		s.closeAll()

		s.mu.Lock()
		s.isRunning = false
		s.closed = true
		s.mu.Unlock()

		s.logger.Info("anonymization server stopped")
	})

	return shutdownErr
}

// closeAll releases components in reverse creation order.
func (s *Server) closeAll() {
	if s.trail != nil {
		if err := s.trail.Close(); err != nil {
			s.logger.Warn("audit close failed", "error", err)
		}
		s.trail = nil
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			s.logger.Warn("close failed", "error", err)
		}
	}
	s.closers = nil
}
