// Package ml implements the text-classification pipelines: a bag-of-words
// vectorizer feeding one binary classifier per label.
package ml

import (
	"fmt"

	"github.com/kailas-cloud/toxmod/internal/domain"
)

// Pipeline kinds.
const (
	KindLogReg    = "log_reg"
	KindLinearSVM = "linear_svm"
	KindMultiNB   = "multi_nb"
)

// Pipeline is a vectorizer plus one fitted LinearModel per label.
// A fitted pipeline is read-only and safe for concurrent Predict calls.
type Pipeline struct {
	Kind       string
	Labels     []string
	Vectorizer *Vectorizer
	Models     []LinearModel

	trainer Trainer
}

// Fit learns the vocabulary and one classifier per label column.
func (p *Pipeline) Fit(texts []string, y [][]int) error {
	if len(texts) == 0 {
		return ErrEmptyTrainingSet
	}
	if len(texts) != len(y) {
		return fmt.Errorf("%w: %d texts vs %d label rows", domain.ErrShapeMismatch, len(texts), len(y))
	}
	for i, row := range y {
		if len(row) != len(p.Labels) {
			return fmt.Errorf("%w: label row %d has %d columns, want %d",
				domain.ErrShapeMismatch, i, len(row), len(p.Labels))
		}
	}
	if p.trainer == nil {
		return fmt.Errorf("pipeline %q has no trainer", p.Kind)
	}

	if err := p.Vectorizer.Fit(texts); err != nil {
		return fmt.Errorf("fit vectorizer: %w", err)
	}
	x, err := p.Vectorizer.Transform(texts)
	if err != nil {
		return fmt.Errorf("transform: %w", err)
	}

	models := make([]LinearModel, len(p.Labels))
	col := make([]int, len(y))
	for j, label := range p.Labels {
		for i := range y {
			col[i] = y[i][j]
		}
		m, err := p.trainer.Fit(x, col, p.Vectorizer.Dim())
		if err != nil {
			return fmt.Errorf("fit %s: %w", label, err)
		}
		models[j] = m
	}
	p.Models = models
	return nil
}

// Predict returns one row per text with len(Labels) columns in label order.
func (p *Pipeline) Predict(texts []string) ([][]int, error) {
	if len(p.Models) != len(p.Labels) {
		return nil, ErrNotFitted
	}
	x, err := p.Vectorizer.Transform(texts)
	if err != nil {
		return nil, err
	}
	out := make([][]int, len(x))
	for i, row := range x {
		pred := make([]int, len(p.Models))
		for j, m := range p.Models {
			pred[j] = m.Predict(row)
		}
		out[i] = pred
	}
	return out, nil
}

var _ domain.Predictor = (*Pipeline)(nil)
