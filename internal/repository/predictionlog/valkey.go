package predictionlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/toxmod/internal/domain"
)

// BackendValkey names the Valkey backend in append results and config.
const BackendValkey = "valkey"

// DefaultListKey is the list holding JSON-encoded prediction records.
const DefaultListKey = "toxmod:predictions"

// listStore is the consumer interface for the Valkey log (ISP).
type listStore interface {
	RPush(ctx context.Context, key string, values ...[]byte) error
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	Ping(ctx context.Context) error
}

// ValkeyRepo appends records to a Valkey list.
type ValkeyRepo struct {
	store listStore
	key   string
}

// NewValkey creates a repository over the list at key.
func NewValkey(s listStore, key string) *ValkeyRepo {
	if key == "" {
		key = DefaultListKey
	}
	return &ValkeyRepo{store: s, key: key}
}

// Append pushes rec as one JSON element.
func (r *ValkeyRepo) Append(ctx context.Context, rec domain.PredictionRecord) domain.AppendResult {
	res := domain.AppendResult{Backend: BackendValkey}
	data, err := json.Marshal(rec)
	if err != nil {
		res.Err = fmt.Errorf("marshal prediction: %w", err)
		return res
	}
	if err := r.store.RPush(ctx, r.key, data); err != nil {
		res.Err = fmt.Errorf("append prediction: %w", err)
	}
	return res
}

// List returns every record in insertion order.
func (r *ValkeyRepo) List(ctx context.Context) ([]domain.PredictionRecord, error) {
	rows, err := r.store.LRange(ctx, r.key, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("read predictions: %w", err)
	}
	out := make([]domain.PredictionRecord, 0, len(rows))
	for i, row := range rows {
		var rec domain.PredictionRecord
		if err := json.Unmarshal(row, &rec); err != nil {
			return nil, fmt.Errorf("decode prediction %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Ping checks store connectivity.
func (r *ValkeyRepo) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
