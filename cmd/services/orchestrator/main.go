package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nodeplane/nodeplane/internal/bus"
	"github.com/nodeplane/nodeplane/internal/config"
	"github.com/nodeplane/nodeplane/internal/handlers"
	"github.com/nodeplane/nodeplane/internal/lifecycle"
	"github.com/nodeplane/nodeplane/internal/logging"
	"github.com/nodeplane/nodeplane/internal/router"
	"github.com/nodeplane/nodeplane/internal/store"
	"github.com/nodeplane/nodeplane/internal/telemetry"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	handlers.Version = Version
	logger.Info("Orchestrator starting...",
		"version", Version, "commit", GitCommit, "build_time", BuildTime)

	// Entity store
	logger.Info("Opening entity store", "backend", cfg.Store.Backend)
	st, err := store.New(cfg.Store, logger)
	if err != nil {
		logger.Fatal("Failed to open store", "error", err)
	}
	defer func() { _ = st.Close() }()

	// Event bus
	logger.Info("Connecting to event bus", "type", cfg.Bus.Type)
	publisher, err := bus.New(cfg.Bus)
	if err != nil {
		logger.Fatal("Failed to connect to event bus", "error", err)
	}
	defer func() { _ = publisher.Close() }()

	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	// Background workers. Both must be running before the server
	// starts accepting requests.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := lifecycle.NewScheduler(cfg.Workers.Lifecycle, st, publisher, logger)
	scheduler.Start(ctx)

	generator := telemetry.NewGenerator(cfg.Workers.Telemetry, st, publisher, logger)
	generator.Start(ctx)

	app := router.New(logger, st, publisher, *cfg, scheduler.Alive, generator.Alive)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort)
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop workers first so no cycle is in flight when the store closes
	scheduler.Stop()
	generator.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
