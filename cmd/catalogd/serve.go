package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/shapedtime/catalogd/internal/api"
	"github.com/shapedtime/catalogd/internal/dispatch"
	"github.com/shapedtime/catalogd/internal/metrics"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "run the REST API and metrics servers",
	Action: func(c *cli.Context) error {
		s, err := newService(c, false, dispatch.Inline{}, nil)
		if err != nil {
			return err
		}
		defer s.Close()
		cfg := s.cfg

		opts := api.Options{
			Capabilities: s.caps,
			Languages:    cfg.OpenSubtitles.Languages,
			Observer:     s.metrics,
		}
		if s.subtitles != nil {
			opts.Downloader = s.subtitles
		}
		apiServer := api.NewServer(s.registry, s.aggregator, opts)

		httpServer := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
			Handler: apiServer.Handler(),
		}

		var metricsServer *metrics.Server
		if cfg.Server.MetricsPort > 0 {
			metricsServer = metrics.NewServer(cfg.Server.MetricsPort, s.promReg)
			go metricsServer.Start()
		}

		go func() {
			slog.Info("Starting REST API server", "port", cfg.Server.HTTPPort)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("REST API server error", "error", err)
			}
		}()

		slog.Info("catalogd is ready",
			"api_url", fmt.Sprintf("http://localhost:%d/api", cfg.Server.HTTPPort),
			"providers", len(s.registry.All()),
		)

		// Wait for shutdown signal
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		sig := <-sigChan
		slog.Info("Received signal, shutting down", "signal", sig)

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		s.registry.CancelAll()
		if err := httpServer.Shutdown(ctx); err != nil {
			slog.Error("REST API server shutdown error", "error", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(ctx); err != nil {
				slog.Error("Metrics server shutdown error", "error", err)
			}
		}

		slog.Info("catalogd stopped")
		return nil
	},
}
