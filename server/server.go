// Package server exposes the HTTP surface: metadata probes, download
// scheduling, job status polling, artifact retrieval and operational
// endpoints.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/clipd/fetch"
	"github.com/teranos/clipd/ledger"
	"github.com/teranos/clipd/logger"
	"github.com/teranos/clipd/vault"
)

const shutdownTimeout = 15 * time.Second

// Server wires the supervisor, ledger and vault behind HTTP handlers
type Server struct {
	store      *ledger.Store
	supervisor *fetch.Supervisor
	vault      *vault.Vault
	mux        *http.ServeMux
	httpServer *http.Server
	log        *zap.SugaredLogger
}

// New creates a server listening on the given port once Start is called
func New(port int, store *ledger.Store, supervisor *fetch.Supervisor, vlt *vault.Vault, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	s := &Server{
		store:      store,
		supervisor: supervisor,
		vault:      vlt,
		mux:        http.NewServeMux(),
		log:        log.Named("server"),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.mux,
		// No WriteTimeout: artifact downloads legitimately run for minutes.
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	return s
}

// setupRoutes configures all HTTP handlers
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/info", s.HandleInfo)
	s.mux.HandleFunc("/api/download", s.HandleDownload)
	s.mux.HandleFunc("/api/status/", s.HandleStatus)
	s.mux.HandleFunc("/api/jobs", s.HandleJobs)
	s.mux.HandleFunc("/downloads/", s.HandleArtifact)
	s.mux.HandleFunc("/health", s.HandleHealth)
	s.mux.HandleFunc("/logs/download", s.HandleLogDownload)
}

// Handler returns the route table, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start blocks serving HTTP until Shutdown is called
func (s *Server) Start() error {
	s.log.Infow("HTTP server listening", logger.FieldAddress, s.httpServer.Addr)

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests with a bounded grace period
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}
