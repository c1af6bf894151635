package prediction

import (
	"context"

	"github.com/kailas-cloud/toxmod/internal/domain"
)

// LogStore appends served predictions.
type LogStore interface {
	Append(ctx context.Context, rec domain.PredictionRecord) domain.AppendResult
}

// ArtifactResolver looks up published artifacts.
type ArtifactResolver interface {
	Resolve(ctx context.Context, name, ref string) (domain.Artifact, error)
}

// Decoder turns an artifact payload into a predictor.
type Decoder func(payload []byte) (domain.Predictor, error)
