// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Command server runs the passkey HTTP server without the CLI wrapper.
// It is the entrypoint used by container images.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeremyhahn/go-passkey/internal/config"
	"github.com/jeremyhahn/go-passkey/internal/rest"
	"github.com/jeremyhahn/go-passkey/pkg/health"
	"github.com/jeremyhahn/go-passkey/pkg/logging"
	"github.com/jeremyhahn/go-passkey/pkg/metrics"
	"github.com/jeremyhahn/go-passkey/pkg/passkey"
	"github.com/jeremyhahn/go-passkey/pkg/ratelimit"
	"github.com/jeremyhahn/go-passkey/pkg/storage/file"
)

var (
	// Version information (set during build)
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("go-passkey server\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Git Commit: %s\n", commit)
		fmt.Printf("  Built:      %s\n", date)
		os.Exit(0)
	}

	// Check for config file override via environment
	if envConfig := os.Getenv("PASSKEY_CONFIG"); envConfig != "" && *configPath == "" {
		*configPath = envConfig
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: logging.Format(cfg.Logging.Format),
	})
	slog.SetDefault(logger)

	logger.Info("Starting passkey server",
		"config", *configPath,
		"version", version,
		"rp_id", cfg.RelyingParty.ID,
		"port", cfg.Server.Port)

	store, err := openUserStore(cfg)
	if err != nil {
		logger.Error("Failed to open user store", slog.Any("error", err))
		os.Exit(1)
	}

	svc, err := passkey.NewService(passkey.ServiceParams{
		Config:    cfg.PasskeyConfig(),
		UserStore: store,
		Metrics:   metrics.NewRecorder(),
		Logger:    logger,
	})
	if err != nil {
		logger.Error("Failed to create passkey service", slog.Any("error", err))
		os.Exit(1)
	}

	tlsConfig, err := cfg.TLS.LoadTLSConfig()
	if err != nil {
		logger.Error("Failed to load TLS configuration", slog.Any("error", err))
		os.Exit(1)
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	healthPath := ""
	readyPath := ""
	if cfg.Health.Enabled {
		healthPath = cfg.Health.Path
		readyPath = cfg.Health.ReadyPath
	}

	checker := health.NewChecker()
	checker.RegisterCheck("user-store", health.StoreCheck("user-store",
		func(ctx context.Context) error {
			_, err := store.Exists(ctx, "healthcheck")
			return err
		}))

	limiter := ratelimit.New(&ratelimit.Config{
		Enabled:           cfg.RateLimit.Enabled,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
	})
	defer limiter.Stop()

	srv, err := rest.NewServer(&rest.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		Service:      svc,
		TLSConfig:    tlsConfig,
		Logger:       logger,
		MetricsPath:  metricsPath,
		HealthPath:   healthPath,
		ReadyPath:    readyPath,
		Health:       checker,
		RateLimit:    limiter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})
	if err != nil {
		logger.Error("Failed to create server", slog.Any("error", err))
		os.Exit(1)
	}

	// Start the server in a goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()
	checker.MarkStarted()

	// Setup signal handler for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case err := <-errChan:
		if err != nil {
			logger.Error("Server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("Error during server shutdown", slog.Any("error", err))
		os.Exit(1)
	}
}

// openUserStore creates the user store described by the storage section.
func openUserStore(cfg *config.Config) (passkey.UserStore, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return passkey.NewMemoryUserStore(), nil
	case "file":
		backend, err := file.New(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file storage: %w", err)
		}
		return passkey.NewBackendUserStore(backend)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}
