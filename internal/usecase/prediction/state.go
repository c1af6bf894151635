package prediction

import (
	"context"
	"fmt"
	"slices"

	"github.com/kailas-cloud/toxmod/internal/domain"
)

// ModelState is the immutable outcome of the one startup load attempt.
// The zero value is Unloaded.
type ModelState struct {
	predictor domain.Predictor
	meta      domain.ArtifactMetadata
}

// Unloaded returns the state of a service without a model.
func Unloaded() ModelState { return ModelState{} }

// Loaded returns a state serving p.
func Loaded(p domain.Predictor, meta domain.ArtifactMetadata) ModelState {
	return ModelState{predictor: p, meta: meta}
}

// IsLoaded reports whether a model is available.
func (s ModelState) IsLoaded() bool { return s.predictor != nil }

// Metadata returns the artifact metadata of the loaded model.
func (s ModelState) Metadata() (domain.ArtifactMetadata, bool) {
	return s.meta, s.IsLoaded()
}

// LoadModel resolves name:ref, decodes it and checks that its label order
// matches labels.
func LoadModel(
	ctx context.Context, resolver ArtifactResolver, decode Decoder, name, ref string, labels []string,
) (ModelState, error) {
	art, err := resolver.Resolve(ctx, name, ref)
	if err != nil {
		return Unloaded(), fmt.Errorf("resolve %s:%s: %w", name, ref, err)
	}
	if len(art.Metadata.Labels) > 0 && !slices.Equal(art.Metadata.Labels, labels) {
		return Unloaded(), fmt.Errorf("%w: artifact labels %v, service labels %v",
			domain.ErrLabelMismatch, art.Metadata.Labels, labels)
	}
	p, err := decode(art.Payload)
	if err != nil {
		return Unloaded(), fmt.Errorf("decode %s:%s: %w", name, art.Metadata.Version, err)
	}
	return Loaded(p, art.Metadata), nil
}
