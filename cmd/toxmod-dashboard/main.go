package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/toxmod/internal/bootstrap"
	"github.com/kailas-cloud/toxmod/internal/config"
	logpkg "github.com/kailas-cloud/toxmod/internal/logger"
	"github.com/kailas-cloud/toxmod/internal/metrics"
	fiberTransport "github.com/kailas-cloud/toxmod/internal/transport/fiber"
	"github.com/kailas-cloud/toxmod/internal/transport/predictclient"
	"github.com/kailas-cloud/toxmod/internal/version"
	"github.com/kailas-cloud/toxmod/web"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, "toxmod-dashboard", cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting toxmod dashboard",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.Dashboard.Port),
		zap.String("api_url", cfg.Dashboard.APIURL),
		zap.String("prediction_log", cfg.PredictionLog.Backend),
	)

	ctx := context.Background()

	store, err := bootstrap.OpenValkey(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Valkey", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
	}

	logs, err := bootstrap.NewLogStore(ctx, cfg, store)
	if err != nil {
		logger.Fatal("Failed to open prediction log", zap.Error(err))
	}
	if err := logs.Ping(ctx); err != nil {
		logger.Warn("Prediction log not reachable yet", zap.Error(err))
	}

	api := predictclient.NewClient(cfg.Dashboard.APIURL, time.Duration(cfg.Dashboard.RequestTimeoutSec)*time.Second)
	if h, err := api.Health(ctx); err != nil {
		logger.Warn("Prediction API not reachable yet", zap.Error(err))
	} else {
		logger.Info("Prediction API reachable", zap.String("status", h.Status), zap.String("model", h.Model))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.NewMonitoringCollector(
		logs,
		cfg.Labels,
		cfg.Dashboard.AlertThreshold,
		time.Duration(cfg.Dashboard.ScrapeTimeoutSec)*time.Second,
		logger,
	))
	metricsHandler := promhttp.HandlerFor(
		prometheus.Gatherers{prometheus.DefaultGatherer, reg},
		promhttp.HandlerOpts{},
	)

	server := fiberTransport.New(fiberTransport.Config{
		Labels:         cfg.Labels,
		AlertThreshold: cfg.Dashboard.AlertThreshold,
		Views:          web.Views(),
		Metrics:        metricsHandler,
		AccessLog:      cfg.Dashboard.AccessLog,
	}, api, logs, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	addr := fmt.Sprintf(":%d", cfg.Dashboard.Port)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := server.Listen(addr); err != nil {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	if err := server.Shutdown(); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
