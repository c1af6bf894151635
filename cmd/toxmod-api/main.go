package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/toxmod/internal/bootstrap"
	"github.com/kailas-cloud/toxmod/internal/config"
	dbValkey "github.com/kailas-cloud/toxmod/internal/db/valkey"
	"github.com/kailas-cloud/toxmod/internal/domain"
	logpkg "github.com/kailas-cloud/toxmod/internal/logger"
	"github.com/kailas-cloud/toxmod/internal/metrics"
	"github.com/kailas-cloud/toxmod/internal/ml"
	chiTransport "github.com/kailas-cloud/toxmod/internal/transport/chi"
	healthuc "github.com/kailas-cloud/toxmod/internal/usecase/health"
	predictionuc "github.com/kailas-cloud/toxmod/internal/usecase/prediction"
	"github.com/kailas-cloud/toxmod/internal/version"
)

const modelLoadTimeout = 60 * time.Second

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, "toxmod-api", cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting toxmod prediction API",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.API.Port),
		zap.String("registry_driver", cfg.Registry.Driver),
		zap.String("prediction_log", cfg.PredictionLog.Backend),
	)

	metrics.RegisterPredictionMetrics()

	ctx := context.Background()

	// Valkey outages leave the service up but unloaded; no reconnect is attempted.
	store, err := bootstrap.OpenValkey(ctx, cfg)
	if err != nil {
		logger.Warn("Valkey unavailable", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
	}

	state := loadModel(ctx, cfg, store, logger)

	var logStore predictionuc.LogStore
	ls, err := bootstrap.NewLogStore(ctx, cfg, store)
	if err != nil {
		logger.Warn("Prediction log unavailable; predictions will not be recorded", zap.Error(err))
	} else {
		logStore = ls
	}

	predSvc := predictionuc.New(state, cfg.Labels, logStore, logger)
	healthSvc := healthuc.New(state)
	server := chiTransport.NewServer(predSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEvent(logger))
	r.Use(metrics.Middleware("api"))
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.API.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.API.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.API.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.API.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// loadModel makes the single startup attempt to resolve and decode the served
// artifact. Any failure yields an unloaded state for the process lifetime.
func loadModel(ctx context.Context, cfg config.Config, store *dbValkey.Store, logger *zap.Logger) predictionuc.ModelState {
	ctx, cancel := context.WithTimeout(ctx, modelLoadTimeout)
	defer cancel()

	reg, err := bootstrap.NewRegistry(cfg, store)
	if err != nil {
		logger.Warn("Model not loaded: registry unavailable", zap.Error(err))
		return predictionuc.Unloaded()
	}

	decode := func(payload []byte) (domain.Predictor, error) {
		return ml.Decode(payload)
	}
	state, err := predictionuc.LoadModel(ctx, reg, decode, cfg.Registry.Model, cfg.Registry.Ref, cfg.Labels)
	if err != nil {
		logger.Warn("Model not loaded",
			zap.String("model", cfg.Registry.Model),
			zap.String("ref", cfg.Registry.Ref),
			zap.Error(err),
		)
		return predictionuc.Unloaded()
	}

	meta, _ := state.Metadata()
	metrics.ModelLoaded.WithLabelValues(meta.Name, meta.Version).Set(1)
	logger.Info("Model loaded",
		zap.String("model", meta.Name),
		zap.String("version", meta.Version),
		zap.String("kind", meta.Kind),
	)
	return state
}
