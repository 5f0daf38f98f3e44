package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/drills"
	httpAdapter "github.com/aretw0/drills/pkg/adapters/http"
	"github.com/aretw0/drills/pkg/observability"
	"github.com/aretw0/drills/pkg/registry"
	"github.com/aretw0/drills/pkg/runner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP environment server",
	Long: `Serves sessions of the configured design over a JSON API so a remote trainer
can create sessions, reset them and step them. Prometheus metrics are exposed
on /metrics.

With the redis store backend, best-known records are shared and session
access is serialized across server replicas.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		port, _ := cmd.Flags().GetString("port")
		printBanner(cmd)

		sm := runner.NewSignalManager(cmd.Context())
		defer sm.Stop()
		ctx := sm.Context()

		store, closeStore, err := drills.NewRecordStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return err
		}

		factory := drills.NewFactory(cfg,
			drills.WithLogger(logger),
			drills.WithRecordStore(store),
			drills.WithLifecycleHooks(observability.Combine(metrics.Hooks(), observability.LogHooks(logger))),
		)
		regOpts := []registry.Option{registry.WithLogger(logger)}
		if locker := drills.NewLocker(cfg, store); locker != nil {
			regOpts = append(regOpts, registry.WithLocker(locker, registry.DefaultLockTTL))
		}
		sessions := registry.New(factory, regOpts...)
		defer sessions.Close(context.Background())

		handler := httpAdapter.NewHandler(sessions,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		)
		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting drills server", "address", srv.Addr, "design", cfg.DesignFile, "target", cfg.Target)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			logger.Info("shutting down")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("graceful shutdown did not complete", "error", err)
				return srv.Close()
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
