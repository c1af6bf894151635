package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/toxmod/internal/db"
	"github.com/kailas-cloud/toxmod/internal/domain"
)

// store is the consumer interface for the key-value registry (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MSet(ctx context.Context, kv map[string][]byte) error
	Incr(ctx context.Context, key string) (int64, error)
}

// Repo keeps artifacts in Valkey: an INCR sequence per name, payload and
// metadata under versioned keys, and one key per alias holding a version.
type Repo struct {
	store store
}

// New creates a Valkey-backed registry.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Publish allocates the next version of a.Metadata.Name, stores it and moves
// aliases onto it in a single MSET.
func (r *Repo) Publish(ctx context.Context, a domain.Artifact, aliases []string) (string, error) {
	name := a.Metadata.Name
	if err := validateName(name); err != nil {
		return "", err
	}

	n, err := r.store.Incr(ctx, seqKey(name))
	if err != nil {
		return "", fmt.Errorf("allocate version for %s: %w", name, err)
	}
	version := formatVersion(n)

	meta := a.Metadata
	meta.Version = version
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}

	kv := map[string][]byte{
		payloadKey(name, version): a.Payload,
		metaKey(name, version):    metaJSON,
	}
	for _, alias := range aliases {
		if _, explicit := parseVersion(alias); explicit || alias == "" {
			return "", fmt.Errorf("invalid alias %q", alias)
		}
		kv[aliasKey(name, alias)] = []byte(version)
	}
	if err := r.store.MSet(ctx, kv); err != nil {
		return "", fmt.Errorf("store %s:%s: %w", name, version, err)
	}
	return version, nil
}

// Resolve returns the artifact named by an alias or an explicit "vN".
func (r *Repo) Resolve(ctx context.Context, name, ref string) (domain.Artifact, error) {
	if err := validateName(name); err != nil {
		return domain.Artifact{}, err
	}

	version := ref
	if _, explicit := parseVersion(ref); !explicit {
		v, err := r.get(ctx, aliasKey(name, ref))
		if err != nil {
			return domain.Artifact{}, fmt.Errorf("resolve alias %s:%s: %w", name, ref, err)
		}
		version = string(v)
	}

	metaJSON, err := r.get(ctx, metaKey(name, version))
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("get metadata %s:%s: %w", name, version, err)
	}
	var meta domain.ArtifactMetadata
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return domain.Artifact{}, fmt.Errorf("decode metadata %s:%s: %w", name, version, err)
	}
	payload, err := r.get(ctx, payloadKey(name, version))
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("get payload %s:%s: %w", name, version, err)
	}
	return domain.Artifact{Metadata: meta, Payload: payload}, nil
}

func (r *Repo) get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.store.Get(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return nil, domain.ErrArtifactNotFound
	}
	return v, err
}
