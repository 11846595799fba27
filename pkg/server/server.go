package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/autopublish/pkg/autopublish"
	"mercator-hq/autopublish/pkg/config"
	"mercator-hq/autopublish/pkg/content"
	"mercator-hq/autopublish/pkg/history"
	"mercator-hq/autopublish/pkg/telemetry"
	"mercator-hq/autopublish/pkg/workflow"
)

// Runner triggers scans on demand. *autopublish.Scheduler implements it.
type Runner interface {
	RunNow(ctx context.Context, opts autopublish.RunOptions) (*autopublish.RunResult, error)
}

// Deps are the components the API serves.
type Deps struct {
	Catalog   content.Catalog
	Engine    *workflow.Engine
	Runner    Runner
	History   history.Store
	Telemetry *telemetry.Telemetry
}

// Server is the admin HTTP server.
type Server struct {
	config       *config.ServerConfig
	deps         Deps
	httpServer   *http.Server
	listener     net.Listener
	logger       *slog.Logger
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a server.
func NewServer(cfg *config.ServerConfig, deps Deps) *Server {
	return &Server{
		config: cfg,
		deps:   deps,
		logger: slog.Default().With("component", "server"),
	}
}

// Start listens on the configured address and serves until ctx is
// cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting admin server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("admin server stopped")
	})

	return shutdownErr
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	tel := s.deps.Telemetry
	if tel != nil {
		tel.Health().Register(mux, tel.Version())
		mux.Handle("GET /metrics", tel.Metrics().Handler())
	}

	h := &handlers{deps: s.deps, logger: s.logger}
	auth := NewTokenAuth(s.config)
	api := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, auth.Handle(fn))
	}
	api("GET /v1/items", h.listItems)
	api("GET /v1/items/{id}", h.getItem)
	api("PUT /v1/items/{id}", h.putItem)
	api("POST /v1/items/{id}/transitions/{transition}", h.transition)
	api("POST /v1/runs", h.startRun)
	api("GET /v1/runs", h.listRuns)

	var handler http.Handler = mux
	if tel != nil {
		handler = MetricsMiddleware(tel.Metrics())(handler)
	}
	handler = LoggingMiddleware(handler)
	if tel != nil {
		handler = tel.Tracer().HTTPMiddleware(handler)
	}
	handler = RequestIDMiddleware(handler)

	// Recovery middleware (outermost)
	handler = RecoveryMiddleware(handler)

	return handler
}
