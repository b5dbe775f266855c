// CPA Engine - commission validation for affiliate leads.

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/fature/cpa-engine/internal/api"
	"github.com/fature/cpa-engine/internal/bus"
	"github.com/fature/cpa-engine/internal/cache"
	"github.com/fature/cpa-engine/internal/domain"
	"github.com/fature/cpa-engine/internal/fraud"
	"github.com/fature/cpa-engine/internal/health"
	"github.com/fature/cpa-engine/internal/metrics"
	"github.com/fature/cpa-engine/internal/rules"
	"github.com/fature/cpa-engine/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("CPA_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting cpa-engine",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	cfg := domain.DefaultConfig()
	if os.Getenv("CPA_TIER") == "cluster" {
		cfg = domain.ClusterConfig()
		slog.Info("running in cluster mode")
	}
	applyEnvOverrides(cfg)

	slog.Info("configuration loaded",
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"origin", cfg.Origin.BaseURL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	engineMetrics := metrics.New(registry)

	store, err := cache.New(cfg.Cache, cfg.Origin, engineMetrics)
	if err != nil {
		slog.Error("failed to initialize config store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("config store initialized", "type", cfg.Cache.Type)

	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	detector, err := fraud.NewDetector()
	if err != nil {
		slog.Error("failed to initialize fraud detector", "error", err)
		os.Exit(1)
	}
	slog.Info("fraud detector initialized")

	evaluator := rules.NewEvaluator(store, detector, busImpl, engineMetrics)

	auditWorker := worker.NewAuditWorker(busImpl)
	if err := auditWorker.Start(ctx); err != nil {
		slog.Error("failed to start audit worker", "error", err)
		os.Exit(1)
	}

	probe := health.NewProbe(store, busImpl)

	srv := api.NewServer(cfg.Server, evaluator, store, probe, registry, Version)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("cpa-engine is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	<-ctx.Done()
	slog.Info("shutting down...")

	auditWorker.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("cpa-engine shutdown complete")
}

// applyEnvOverrides lets deployment set the endpoints without a config file.
func applyEnvOverrides(cfg *domain.Config) {
	if v := os.Getenv("CPA_ORIGIN_URL"); v != "" {
		cfg.Origin.BaseURL = v
	}
	if v := os.Getenv("CPA_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("CPA_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}
	if v := os.Getenv("CPA_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}
