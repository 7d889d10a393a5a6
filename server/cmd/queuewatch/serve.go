package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/queuewatch/queuewatch/server/internal/alerts"
	"github.com/queuewatch/queuewatch/server/internal/api"
	"github.com/queuewatch/queuewatch/server/internal/auth"
	"github.com/queuewatch/queuewatch/server/internal/config"
	"github.com/queuewatch/queuewatch/server/internal/ingest"
	"github.com/queuewatch/queuewatch/server/internal/metrics"
	"github.com/queuewatch/queuewatch/server/internal/scraper"
	"github.com/queuewatch/queuewatch/server/internal/store"
	"github.com/queuewatch/queuewatch/server/internal/ws"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard, JSON API and WebSocket stream",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}
	slog.Info("queuewatch starting",
		"config", configPath,
		"http_port", cfg.Server.HTTPPort,
		"parks", len(cfg.Parks),
		"storage", cfg.Storage.Driver,
		"auth_mode", cfg.Server.Auth.Mode,
	)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	alertEngine := alerts.New(cfg.Alerts)
	svc := ingest.New(cfg, scraper.New(cfg.Source, len(cfg.Parks)), st,
		ingest.WithMetrics(m),
		ingest.WithAlerts(alertEngine),
	)

	if configPath != "" {
		go func() {
			err := config.Watch(ctx, configPath, func(updated *config.Config) {
				svc.SetCatalog(updated)
				alertEngine.SetRules(updated.Alerts)
				if changed := cfg.RestartRequired(updated); len(changed) > 0 {
					slog.Warn("config: some changes need a restart to apply", "sections", changed)
				}
			})
			if err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	if cfg.Refresh.Interval > 0 {
		go svc.Run(ctx, cfg.Refresh.Interval)
	}

	hub := ws.New(svc, cfg.Refresh.Broadcast)
	go hub.Run(ctx)

	handler := api.New(api.Options{
		Ingest:         svc,
		Store:          st,
		History:        cfg.History,
		Alerts:         alertEngine,
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Stream:         hub,
		Guard: auth.APIKey(
			cfg.Server.Auth.Mode,
			cfg.Server.Auth.EffectiveHeader(),
			cfg.Server.Auth.Key(),
		),
	})

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	slog.Info("queuewatch shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	return httpSrv.Shutdown(shutdownCtx)
}
