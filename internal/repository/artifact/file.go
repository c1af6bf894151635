package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/kailas-cloud/toxmod/internal/domain"
)

const (
	payloadFile = "model.bin"
	metaFile    = "metadata.json"
	aliasesFile = "aliases.json"
)

// FileRepo keeps artifacts in a directory tree:
// <root>/<name>/vN/{model.bin,metadata.json} plus <root>/<name>/aliases.json.
// It serializes writers within one process only.
type FileRepo struct {
	root string
	mu   sync.Mutex
}

// NewFileRepo creates a directory-backed registry.
func NewFileRepo(root string) *FileRepo {
	return &FileRepo{root: root}
}

// Publish writes the next version and moves aliases onto it.
func (r *FileRepo) Publish(_ context.Context, a domain.Artifact, aliases []string) (string, error) {
	name := a.Metadata.Name
	if err := validateName(name); err != nil {
		return "", err
	}
	for _, alias := range aliases {
		if _, explicit := parseVersion(alias); explicit || alias == "" {
			return "", fmt.Errorf("invalid alias %q", alias)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	base := filepath.Join(r.root, name)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", base, err)
	}
	n, err := latestVersion(base)
	if err != nil {
		return "", err
	}
	version := formatVersion(n + 1)

	meta := a.Metadata
	meta.Version = version
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}

	dir := filepath.Join(base, version)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	if err := writeFileAtomic(filepath.Join(dir, payloadFile), a.Payload); err != nil {
		return "", err
	}
	if err := writeFileAtomic(filepath.Join(dir, metaFile), metaJSON); err != nil {
		return "", err
	}

	current, err := readAliases(base)
	if err != nil {
		return "", err
	}
	for _, alias := range aliases {
		current[alias] = version
	}
	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal aliases: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(base, aliasesFile), data); err != nil {
		return "", err
	}
	return version, nil
}

// Resolve returns the artifact named by an alias or an explicit "vN".
func (r *FileRepo) Resolve(_ context.Context, name, ref string) (domain.Artifact, error) {
	if err := validateName(name); err != nil {
		return domain.Artifact{}, err
	}
	base := filepath.Join(r.root, name)

	version := ref
	if _, explicit := parseVersion(ref); !explicit {
		r.mu.Lock()
		aliases, err := readAliases(base)
		r.mu.Unlock()
		if err != nil {
			return domain.Artifact{}, err
		}
		v, ok := aliases[ref]
		if !ok {
			return domain.Artifact{}, fmt.Errorf("resolve alias %s:%s: %w", name, ref, domain.ErrArtifactNotFound)
		}
		version = v
	}

	dir := filepath.Join(base, version)
	metaJSON, err := readFile(filepath.Join(dir, metaFile))
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("get metadata %s:%s: %w", name, version, err)
	}
	var meta domain.ArtifactMetadata
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return domain.Artifact{}, fmt.Errorf("decode metadata %s:%s: %w", name, version, err)
	}
	payload, err := readFile(filepath.Join(dir, payloadFile))
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("get payload %s:%s: %w", name, version, err)
	}
	return domain.Artifact{Metadata: meta, Payload: payload}, nil
}

func latestVersion(base string) (int64, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", base, err)
	}
	var latest int64
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if n, ok := parseVersion(e.Name()); ok && n > latest {
			latest = n
		}
	}
	return latest, nil
}

func readAliases(base string) (map[string]string, error) {
	aliases := make(map[string]string)
	data, err := os.ReadFile(filepath.Join(base, aliasesFile))
	if errors.Is(err, fs.ErrNotExist) {
		return aliases, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read aliases: %w", err)
	}
	if err := json.Unmarshal(data, &aliases); err != nil {
		return nil, fmt.Errorf("decode aliases: %w", err)
	}
	return aliases, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrArtifactNotFound
	}
	return data, err
}

// writeFileAtomic writes via a temp file and rename so readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
