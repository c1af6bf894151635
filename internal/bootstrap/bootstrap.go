// Package bootstrap builds the stores shared by the toxmod binaries from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/toxmod/internal/config"
	"github.com/kailas-cloud/toxmod/internal/db/dynamo"
	dbValkey "github.com/kailas-cloud/toxmod/internal/db/valkey"
	"github.com/kailas-cloud/toxmod/internal/domain"
	"github.com/kailas-cloud/toxmod/internal/repository/artifact"
	"github.com/kailas-cloud/toxmod/internal/repository/predictionlog"
)

// ErrNoValkey is returned when a Valkey-backed component is requested without a connection.
var ErrNoValkey = errors.New("valkey store is not available")

// Registry publishes and resolves model artifacts.
type Registry interface {
	Publish(ctx context.Context, a domain.Artifact, aliases []string) (string, error)
	Resolve(ctx context.Context, name, ref string) (domain.Artifact, error)
}

// LogStore appends and scans served predictions.
type LogStore interface {
	Append(ctx context.Context, rec domain.PredictionRecord) domain.AppendResult
	List(ctx context.Context) ([]domain.PredictionRecord, error)
	Ping(ctx context.Context) error
}

var (
	_ Registry = (*artifact.Repo)(nil)
	_ Registry = (*artifact.FileRepo)(nil)
	_ LogStore = (*predictionlog.DynamoRepo)(nil)
	_ LogStore = (*predictionlog.ValkeyRepo)(nil)
)

// OpenValkey connects to Valkey and waits until it answers PING.
// It returns nil without error when no component needs Valkey.
func OpenValkey(ctx context.Context, cfg config.Config) (*dbValkey.Store, error) {
	if !cfg.NeedsValkey() {
		return nil, nil
	}
	store, err := dbValkey.NewStore(dbValkey.Config{
		Addrs:    cfg.Valkey.Addrs,
		Username: cfg.Valkey.Username,
		Password: cfg.Valkey.Password,
		DB:       cfg.Valkey.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create valkey store: %w", err)
	}
	timeout := time.Duration(cfg.Valkey.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("valkey not ready: %w", err)
	}
	return store, nil
}

// NewRegistry returns the artifact registry selected by registry.driver.
func NewRegistry(cfg config.Config, store *dbValkey.Store) (Registry, error) {
	switch cfg.Registry.Driver {
	case config.DriverFile:
		return artifact.NewFileRepo(cfg.Registry.Root), nil
	case config.DriverValkey:
		if store == nil {
			return nil, fmt.Errorf("registry: %w", ErrNoValkey)
		}
		return artifact.New(store), nil
	default:
		return nil, fmt.Errorf("unknown registry driver %q", cfg.Registry.Driver)
	}
}

// NewLogStore returns the prediction log selected by prediction_log.backend.
func NewLogStore(ctx context.Context, cfg config.Config, store *dbValkey.Store) (LogStore, error) {
	switch cfg.PredictionLog.Backend {
	case config.BackendDynamoDB:
		client, err := dynamo.NewClient(ctx, dynamo.Config{
			Region:   cfg.DynamoDB.Region,
			Endpoint: cfg.DynamoDB.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("prediction log: %w", err)
		}
		return predictionlog.NewDynamo(client, cfg.DynamoDB.Table), nil
	case config.BackendValkey:
		if store == nil {
			return nil, fmt.Errorf("prediction log: %w", ErrNoValkey)
		}
		return predictionlog.NewValkey(store, cfg.PredictionLog.ListKey), nil
	default:
		return nil, fmt.Errorf("unknown prediction log backend %q", cfg.PredictionLog.Backend)
	}
}
