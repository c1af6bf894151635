package ml

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

const snapshotFormat = 1

// ErrBadPayload signals an artifact payload that is not a pipeline snapshot.
var ErrBadPayload = errors.New("invalid pipeline payload")

type snapshot struct {
	Format     int           `json:"format"`
	Kind       string        `json:"kind"`
	Labels     []string      `json:"labels"`
	Vectorizer *Vectorizer   `json:"vectorizer"`
	Models     []LinearModel `json:"models"`
}

// Encode serializes a fitted pipeline as zstd-compressed JSON.
func Encode(p *Pipeline) ([]byte, error) {
	if len(p.Models) != len(p.Labels) {
		return nil, ErrNotFitted
	}
	raw, err := json.Marshal(snapshot{
		Format:     snapshotFormat,
		Kind:       p.Kind,
		Labels:     p.Labels,
		Vectorizer: p.Vectorizer,
		Models:     p.Models,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal pipeline: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	defer func() { _ = enc.Close() }()
	return enc.EncodeAll(raw, nil), nil
}

// Decode restores a pipeline produced by Encode. The result can predict but not be refitted.
func Decode(payload []byte) (*Pipeline, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
	}

	var s snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
	}
	if s.Format != snapshotFormat {
		return nil, fmt.Errorf("%w: unsupported format %d", ErrBadPayload, s.Format)
	}
	if s.Vectorizer == nil || len(s.Models) != len(s.Labels) {
		return nil, fmt.Errorf("%w: incomplete snapshot", ErrBadPayload)
	}
	if s.Vectorizer.TFIDF && len(s.Vectorizer.IDF) != len(s.Vectorizer.Terms) {
		return nil, fmt.Errorf("%w: idf/vocabulary size mismatch", ErrBadPayload)
	}
	for i, m := range s.Models {
		if m.W != nil && len(m.W) != len(s.Vectorizer.Terms) {
			return nil, fmt.Errorf("%w: model %d has %d weights for %d terms",
				ErrBadPayload, i, len(m.W), len(s.Vectorizer.Terms))
		}
	}

	s.Vectorizer.index()
	return &Pipeline{
		Kind:       s.Kind,
		Labels:     s.Labels,
		Vectorizer: s.Vectorizer,
		Models:     s.Models,
	}, nil
}
