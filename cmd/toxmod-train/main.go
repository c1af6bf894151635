package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/kailas-cloud/toxmod/internal/bootstrap"
	"github.com/kailas-cloud/toxmod/internal/config"
	"github.com/kailas-cloud/toxmod/internal/dataset"
	logpkg "github.com/kailas-cloud/toxmod/internal/logger"
	"github.com/kailas-cloud/toxmod/internal/tracking"
	"github.com/kailas-cloud/toxmod/internal/usecase/training"
	"github.com/kailas-cloud/toxmod/internal/version"
)

func main() {
	models := flag.String("models", "", "comma-separated subset of the configured models to train (default: all configured)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, "toxmod-train", cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	keys, err := restrictModels(cfg.Train.Models, *models)
	if err != nil {
		logger.Fatal("Invalid --models", zap.Error(err))
	}
	specs, err := training.SelectModels(keys)
	if err != nil {
		logger.Fatal("Invalid model selection", zap.Error(err))
	}

	logger.Info("Starting toxmod training",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.Strings("models", keys),
		zap.String("registry_driver", cfg.Registry.Driver),
		zap.String("tracking_dir", cfg.Tracking.Dir),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenValkey(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Valkey", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
	}

	registry, err := bootstrap.NewRegistry(cfg, store)
	if err != nil {
		logger.Fatal("Failed to create artifact registry", zap.Error(err))
	}

	var trackerOpts []tracking.Option
	if cfg.Tracking.PushgatewayURL != "" {
		trackerOpts = append(trackerOpts, tracking.WithPublisher(
			tracking.NewPushgateway(cfg.Tracking.PushgatewayURL, cfg.Tracking.Job),
		))
	}
	tracker := tracking.NewTracker(cfg.Tracking.Dir, logger, trackerOpts...)

	loader := dataset.NewLoader(dataset.Sources{
		Train:      cfg.Train.TrainURL,
		Test:       cfg.Train.TestURL,
		TestLabels: cfg.Train.TestLabelsURL,
	}, cfg.Labels, logger)

	svc := training.New(training.Config{
		Project:     cfg.Train.Project,
		DatasetName: cfg.Train.DatasetName,
		Models:      specs,
	}, loader, tracker, registry, logger)

	results, err := svc.Run(ctx)
	if err != nil {
		logger.Fatal("Training failed", zap.Error(err))
	}

	if err := training.WriteTable(os.Stdout, results); err != nil {
		logger.Fatal("Failed to print results", zap.Error(err))
	}
	logger.Info("Training finished", zap.Int("models", len(results)))
}

// restrictModels narrows the configured model keys to those named in flagValue.
func restrictModels(configured []string, flagValue string) ([]string, error) {
	if strings.TrimSpace(flagValue) == "" {
		return configured, nil
	}
	var out []string
	for _, k := range strings.Split(flagValue, ",") {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if !slices.Contains(configured, k) {
			return nil, fmt.Errorf("model %q is not enabled in train.models %v", k, configured)
		}
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no models selected")
	}
	return out, nil
}
