package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/artpar/kitchen/internal/core/network"
	"github.com/artpar/kitchen/internal/shell/api"
	"github.com/artpar/kitchen/internal/shell/manifest"
	"github.com/artpar/kitchen/internal/shell/store"
	"github.com/artpar/kitchen/internal/shell/workers"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDatabaseError   = 2
	ExitManifestError   = 3
	ExitHTTPServerError = 4
	ExitGenerateError   = 5
	ExitInvalidCompose  = 6
)

// =============================================================================
// Server
// =============================================================================

// Server represents the Kitchen application server.
type Server struct {
	config     *Config
	httpServer *http.Server
	store      store.Store // nil when history is disabled
	catalog    *manifest.Catalog
	watcher    *workers.ManifestWatcher
	pruner     *workers.GenerationPruner
	logger     *slog.Logger
}

// NewServer creates a new server with the given config.
func NewServer(cfg *Config, logger *slog.Logger) (*Server, error) {
	tier, err := network.ParseTier(cfg.Generate.DefaultTier)
	if err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitConfigError,
		}
	}

	// Connect to database when history is enabled
	var s store.Store
	if cfg.Database.Enabled {
		sqlite, err := openStore(cfg.Database.DSN)
		if err != nil {
			return nil, &ServerError{
				Op:       "NewServer",
				Err:      err,
				ExitCode: ExitDatabaseError,
			}
		}
		s = sqlite
	}

	// Load manifests
	paths := cfg.Manifest.ResolvedPaths()
	catalog, err := manifest.NewCatalog(paths, logger)
	if err != nil {
		if s != nil {
			s.Close()
		}
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitManifestError,
		}
	}

	handler := api.SetupAPI(api.APIConfig{
		Catalog:         catalog,
		Store:           s,
		Logger:          logger,
		Version:         Version,
		AdminToken:      cfg.Server.AdminToken,
		DefaultTier:     tier,
		IncludeOptional: cfg.Generate.IncludeOptional,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var watcher *workers.ManifestWatcher
	if cfg.Manifest.Watch {
		watcher = workers.NewManifestWatcher(catalog, paths.Files(), workers.ManifestWatcherConfig{
			Debounce: cfg.Manifest.Debounce,
		}, logger)
	}

	var pruner *workers.GenerationPruner
	if s != nil {
		pruner = workers.NewGenerationPruner(s, workers.GenerationPrunerConfig{
			Interval: cfg.History.PruneInterval,
			MaxAge:   cfg.History.MaxAge,
			Keep:     cfg.History.Keep,
		}, logger)
	}

	logger.Info("server configured",
		"address", cfg.Server.Address(),
		"default_tier", tier,
		"history", s != nil,
		"watch", watcher != nil,
	)

	return &Server{
		config:     cfg,
		httpServer: httpServer,
		store:      s,
		catalog:    catalog,
		watcher:    watcher,
		pruner:     pruner,
		logger:     logger,
	}, nil
}

// openStore opens the sqlite store, creating the parent directory of a file
// DSN first.
func openStore(dsn string) (*store.SQLiteStore, error) {
	if dsn != ":memory:" {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
	}
	return store.NewSQLiteStore(dsn)
}

// Handler returns the HTTP handler the server serves.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// A failed watch leaves the server running on the loaded catalog
	if s.watcher != nil {
		if err := s.watcher.Start(); err != nil {
			s.logger.Error("failed to start manifest watcher", "error", err)
			s.watcher = nil
		}
	}

	if s.pruner != nil {
		s.pruner.Start()
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"address", s.config.Server.Address())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		s.stopBackground()
		return &ServerError{
			Op:       "Start",
			Err:      err,
			ExitCode: ExitHTTPServerError,
		}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	// Shutdown HTTP server
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.stopBackground()

	s.logger.Info("shutdown complete")
	return nil
}

// stopBackground stops the workers and closes the database.
func (s *Server) stopBackground() {
	if s.watcher != nil {
		s.watcher.Stop()
		s.watcher = nil
	}

	if s.pruner != nil {
		s.pruner.Stop()
		s.pruner = nil
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		}
		s.store = nil
	}
}

// =============================================================================
// Server Error
// =============================================================================

// ServerError represents an error during server operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
