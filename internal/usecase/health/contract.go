package health

import "github.com/kailas-cloud/toxmod/internal/domain"

// ModelStatus reports the model loaded at startup.
type ModelStatus interface {
	IsLoaded() bool
	Metadata() (domain.ArtifactMetadata, bool)
}
