// Package auditserver exposes the draw ledger and replay verification over
// HTTP.
package auditserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/louisbranch/fairdraw/internal/platform/timeouts"
	"github.com/louisbranch/fairdraw/internal/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	defaultWorkers   = 4
)

// Config controls the audit HTTP server.
type Config struct {
	Addr string
	// Workers bounds concurrent replays for batch verification.
	Workers int
	// MaxDraws caps the raw draws of one replay; 0 leaves replays unbounded.
	MaxDraws uint64
}

// Server serves the audit API.
type Server struct {
	addr       string
	store      storage.RunStore
	workers    int
	maxDraws   uint64
	httpServer *http.Server
}

// New builds a Server over store.
func New(store storage.RunStore, cfg Config) (*Server, error) {
	if store == nil {
		return nil, errors.New("run store is required")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	s := &Server{addr: cfg.Addr, store: store, workers: workers, maxDraws: cfg.MaxDraws}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	return s, nil
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeouts.Request))

	r.Get("/healthz", s.handleHealth)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.handleListRuns)
		r.Post("/verify", s.handleVerifyRecent)
		r.Get("/{id}", s.handleGetRun)
		r.Post("/{id}/verify", s.handleVerifyRun)
	})
	return r
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("audit server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	serveErr := make(chan error, 1)
	log.Printf("audit api listening on %s", s.addr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
