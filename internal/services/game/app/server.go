// Package app assembles the game API server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/louisbranch/battlearena/internal/platform/telemetry/metrics"
	"github.com/louisbranch/battlearena/internal/platform/timeouts"
	"github.com/louisbranch/battlearena/internal/services/game/api/rest"
	"github.com/louisbranch/battlearena/internal/services/game/events"
	"github.com/louisbranch/battlearena/internal/services/game/session"
	"github.com/louisbranch/battlearena/internal/services/game/storage/sqlite"
	"github.com/louisbranch/battlearena/internal/services/shared/httpmetrics"
)

// Config holds the game server configuration.
type Config struct {
	Addr        string
	DBPath      string
	MetricsPath string

	SessionSecret string
	SessionTTL    time.Duration

	TransactionFailureRate float64
	CardinalityLimit       int
	SampleInterval         time.Duration
	DurationBuckets        []float64

	Logger *log.Logger
}

// Server owns the HTTP listener, the metrics registry and the store.
type Server struct {
	addr       string
	httpServer *http.Server
	store      *sqlite.Store
	registry   *metrics.Registry
	sampler    *events.FailureRateSampler
	logger     *log.Logger
}

// NewServer wires the store, metrics and API handler into a ready server.
func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "game: ", log.LstdFlags)
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.DBPath == "" {
		return nil, errors.New("database path is required")
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open game store: %w", err)
	}

	var regOpts []metrics.Option
	if cfg.CardinalityLimit > 0 {
		regOpts = append(regOpts, metrics.WithCardinalityLimit(cfg.CardinalityLimit))
	}
	registry := metrics.NewRegistry(regOpts...)

	recorder, err := events.NewRecorder(registry)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init recorder: %w", err)
	}
	sessions, err := session.NewManager(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	handler := rest.New(store, recorder, sessions,
		rest.WithTransactionFailureRate(cfg.TransactionFailureRate),
		rest.WithLogger(logger),
	)
	mux := http.NewServeMux()
	rest.RegisterRoutes(mux, handler)
	mux.Handle(cfg.MetricsPath, registry.Handler())

	mwOpts := []httpmetrics.Option{httpmetrics.WithSkipPaths(cfg.MetricsPath)}
	if len(cfg.DurationBuckets) > 0 {
		mwOpts = append(mwOpts, httpmetrics.WithDurationBuckets(cfg.DurationBuckets))
	}
	mw, err := httpmetrics.New(registry, mwOpts...)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	return &Server{
		addr: cfg.Addr,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mw.Wrap(mux),
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		store:    store,
		registry: registry,
		sampler:  events.NewFailureRateSampler(recorder, cfg.SampleInterval, logger),
		logger:   logger,
	}, nil
}

// Registry exposes the server's metrics registry, mainly for tests.
func (s *Server) Registry() *metrics.Registry {
	return s.registry
}

// Handler exposes the fully wired root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe runs the HTTP server and the failure-rate sampler until
// the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	samplerCtx, stopSampler := context.WithCancel(ctx)
	defer stopSampler()
	go func() {
		if err := s.sampler.Run(samplerCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Printf("failure rate sampler: %v", err)
		}
	}()

	serveErr := make(chan error, 1)
	s.logger.Printf("game API listening on %s", s.addr)
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

// Close releases the store.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Printf("close game store: %v", err)
	}
}
