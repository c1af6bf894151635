package training

import (
	"context"

	"github.com/kailas-cloud/toxmod/internal/dataset"
	"github.com/kailas-cloud/toxmod/internal/domain"
	"github.com/kailas-cloud/toxmod/internal/tracking"
)

// DatasetLoader loads the labelled datasets.
type DatasetLoader interface {
	Load(ctx context.Context) (*dataset.Dataset, error)
}

// Tracker starts tracking runs.
type Tracker interface {
	Start(ctx context.Context, opts tracking.RunOptions) (*tracking.Run, error)
}

// Publisher publishes fitted pipelines.
type Publisher interface {
	Publish(ctx context.Context, a domain.Artifact, aliases []string) (string, error)
}
