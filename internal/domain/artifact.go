package domain

import "time"

// ArtifactMetadata describes a published model artifact. It is fixed at publish time.
type ArtifactMetadata struct {
	Name      string             `json:"name"`
	Version   string             `json:"version"`
	ModelKey  string             `json:"model_key"`
	Kind      string             `json:"kind"`
	Labels    []string           `json:"labels"`
	Metrics   map[string]float64 `json:"metrics"`
	CreatedAt time.Time          `json:"created_at"`
}

// Artifact is a versioned serialized pipeline plus its metadata.
type Artifact struct {
	Metadata ArtifactMetadata
	Payload  []byte
}
