package artifact

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/toxmod/internal/db"
	"github.com/kailas-cloud/toxmod/internal/domain"
)

// mockStore is an in-memory implementation of the consumer interface.
type mockStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	seq     map[string]int64
	incrErr error
	msetErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}, seq: map[string]int64{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) MSet(_ context.Context, kv map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.msetErr != nil {
		return m.msetErr
	}
	for k, v := range kv {
		m.data[k] = v
	}
	return nil
}

func (m *mockStore) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incrErr != nil {
		return 0, m.incrErr
	}
	m.seq[key]++
	return m.seq[key], nil
}

func testArtifact(payload string) domain.Artifact {
	return domain.Artifact{
		Metadata: domain.ArtifactMetadata{
			Name:      "log_reg_model",
			ModelKey:  "log_reg",
			Kind:      "log_reg",
			Labels:    domain.DefaultLabels,
			Metrics:   map[string]float64{"macro/f1": 0.5},
			CreatedAt: time.Date(2025, 8, 21, 10, 0, 0, 0, time.UTC),
		},
		Payload: []byte(payload),
	}
}

// registry is the behaviour shared by both backends.
type registry interface {
	Publish(ctx context.Context, a domain.Artifact, aliases []string) (string, error)
	Resolve(ctx context.Context, name, ref string) (domain.Artifact, error)
}
