// Package api provides the HTTP REST surface for genchat.
//
// Endpoints:
//
//	POST /api/chat     - chat with the generation model (auth required)
//	GET  /api/history  - the caller's message history (auth required)
//	GET  /health       - liveness probe
//	GET  /ready        - readiness probe
//
// File structure:
//   - server.go: server setup and lifecycle
//   - middleware.go: recovery, request id, request logging
//   - chat.go: chat endpoint
//   - history.go: history endpoint
//   - health.go: probes
//   - response.go: JSON response helpers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/sakay/genchat/internal/history"
	"github.com/sakay/genchat/internal/log"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads (Slowloris protection).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response. The
	// generation round trip happens within this window.
	WriteTimeout = 2 * time.Minute

	// IdleTimeout applies to keep-alive connections.
	IdleTimeout = 2 * time.Minute
)

// Config wires the server's dependencies.
type Config struct {
	Chat    ChatService
	History *history.Store

	// AuthGate wraps the protected routes. Nil leaves them open, which is
	// only acceptable in tests and local development.
	AuthGate func(http.Handler) http.Handler

	Logger log.Logger
}

// Server is the HTTP server for genchat's REST API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	health  *HealthHandler
	chat    *ChatHandler
	history *HistoryHandler
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(cfg Config) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:     mux,
		logger:  cfg.Logger,
		health:  NewHealthHandler(cfg.Chat, cfg.Logger),
		chat:    NewChatHandler(cfg.Chat, cfg.History, cfg.Logger),
		history: NewHistoryHandler(cfg.History, cfg.Logger),
	}

	gate := cfg.AuthGate
	if gate == nil {
		gate = func(next http.Handler) http.Handler { return next }
		cfg.Logger.Warn("no auth gate configured, protected routes are open")
	}

	s.health.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux, gate)
	s.history.RegisterRoutes(mux, gate)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → request id → logging → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		requestIDMiddleware,
		loggingMiddleware(s.logger),
	)
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
