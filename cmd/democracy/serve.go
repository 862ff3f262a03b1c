package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/Democracy/internal/api"
	"github.com/MikeSquared-Agency/Democracy/internal/engine"
	"github.com/MikeSquared-Agency/Democracy/internal/hermes"
	"github.com/MikeSquared-Agency/Democracy/internal/metrics"
	"github.com/MikeSquared-Agency/Democracy/internal/registry"
	"github.com/MikeSquared-Agency/Democracy/internal/store"
)

func runServe(e *env, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, logger := e.cfg, e.logger

	scheme, err := cfg.Scheme()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store
	var s store.Store
	if cfg.Database.URL != "" {
		db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return fmt.Errorf("migrate database: %w", err)
		}
		s = db
		logger.Info("connected to database")
	} else {
		s = store.NewMemoryStore(nil)
		logger.Info("no database configured, using in-memory store")
	}
	defer s.Close()

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	eng := engine.New(s, hermesClient, cfg.GenealogyOptions(), logger)
	if err := seedRegistry(ctx, e, s, eng); err != nil {
		return err
	}

	// API server
	router := api.NewRouter(eng, s, scheme, cfg.Server.AdminToken, cfg.Server.RateLimit, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: api.NewMetricsRouter(),
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
	return nil
}

// seedRegistry loads registry.path into an empty store. A store that already
// holds models is left alone so admin replacements survive restarts.
func seedRegistry(ctx context.Context, e *env, s store.Store, eng *engine.Engine) error {
	existing, err := s.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	if len(existing) > 0 {
		metrics.SetRegistrySize(len(existing))
		e.logger.Info("registry loaded from store", "models", len(existing))
		return nil
	}
	if e.cfg.Registry.Path == "" {
		e.logger.Warn("registry is empty and registry.path is not set")
		return nil
	}

	models, err := registry.LoadFile(e.cfg.Registry.Path, e.cfg.Registry.Generations)
	if err != nil {
		return err
	}
	return eng.ReplaceRegistry(ctx, models, "bootstrap")
}
