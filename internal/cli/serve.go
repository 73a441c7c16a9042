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

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-passkey/internal/rest"
	"github.com/jeremyhahn/go-passkey/pkg/health"
	"github.com/jeremyhahn/go-passkey/pkg/logging"
	"github.com/jeremyhahn/go-passkey/pkg/metrics"
	"github.com/jeremyhahn/go-passkey/pkg/passkey"
	"github.com/jeremyhahn/go-passkey/pkg/ratelimit"
)

// serveCmd starts the passkey HTTP server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the passkey server",
	Long: `Start the HTTP server hosting the passkey ceremony endpoints,
health probe and Prometheus metrics.

Example:
  passkey serve --config /etc/passkey/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: logging.Format(cfg.Logging.Format),
		})

		store, err := openUserStore(cfg)
		if err != nil {
			return err
		}

		svc, err := passkey.NewService(passkey.ServiceParams{
			Config:    cfg.PasskeyConfig(),
			UserStore: store,
			Metrics:   metrics.NewRecorder(),
			Logger:    logger,
		})
		if err != nil {
			return err
		}

		tlsConfig, err := cfg.TLS.LoadTLSConfig()
		if err != nil {
			return err
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
			return err
		}

		logger.Info("Starting passkey server",
			"rp_id", cfg.RelyingParty.ID,
			"origins", cfg.RelyingParty.Origins,
			"storage", cfg.Storage.Backend,
			"port", cfg.Server.Port)

		// Run until interrupted
		errChan := make(chan error, 1)
		go func() {
			errChan <- srv.Start()
		}()
		checker.MarkStarted()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case err := <-errChan:
			if err != nil {
				return err
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	},
}
