// Package metrics computes multi-label classification scores over label
// indicator matrices. Every division by zero resolves to 0.
package metrics

import (
	"fmt"

	"github.com/kailas-cloud/toxmod/internal/domain"
)

// Aggregate metric keys.
const (
	MicroF1         = "micro/f1"
	MacroF1         = "macro/f1"
	MicroPrecision  = "micro/precision"
	MicroRecall     = "micro/recall"
	MacroPrecision  = "macro/precision"
	MacroRecall     = "macro/recall"
	SubsetAccuracy  = "subset_accuracy"
	perLabelF1Scope = "f1/"
)

// Record is a flat metric name -> value mapping.
type Record map[string]float64

// LabelF1Key returns the record key holding the F1 score of label.
func LabelF1Key(label string) string { return perLabelF1Scope + label }

// confusion holds per-label counts.
type confusion struct {
	tp, fp, fn, tn int
}

func (c confusion) precision() float64 { return safeDiv(c.tp, c.tp+c.fp) }
func (c confusion) recall() float64    { return safeDiv(c.tp, c.tp+c.fn) }
func (c confusion) f1() float64        { return safeDiv(2*c.tp, 2*c.tp+c.fp+c.fn) }
func (c confusion) accuracy() float64  { return safeDiv(c.tp+c.tn, c.tp+c.tn+c.fp+c.fn) }

func safeDiv(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Compute scores predicted against true indicators. Both matrices must have the
// same number of rows and len(labels) columns in every row.
func Compute(yTrue, yPred [][]int, labels []string) (Record, error) {
	if err := checkShape(yTrue, yPred, len(labels)); err != nil {
		return nil, err
	}

	perLabel := confusionByLabel(yTrue, yPred, len(labels))

	var micro confusion
	var sumP, sumR, sumF float64
	for _, c := range perLabel {
		micro.tp += c.tp
		micro.fp += c.fp
		micro.fn += c.fn
		sumP += c.precision()
		sumR += c.recall()
		sumF += c.f1()
	}

	k := float64(len(labels))
	rec := Record{
		MicroF1:        micro.f1(),
		MicroPrecision: micro.precision(),
		MicroRecall:    micro.recall(),
		MacroF1:        0,
		MacroPrecision: 0,
		MacroRecall:    0,
		SubsetAccuracy: subsetAccuracy(yTrue, yPred),
	}
	if k > 0 {
		rec[MacroF1] = sumF / k
		rec[MacroPrecision] = sumP / k
		rec[MacroRecall] = sumR / k
	}
	for j, l := range labels {
		rec[LabelF1Key(l)] = perLabel[j].f1()
	}
	return rec, nil
}

func checkShape(yTrue, yPred [][]int, k int) error {
	if len(yTrue) != len(yPred) {
		return fmt.Errorf("%w: %d true rows vs %d predicted rows", domain.ErrShapeMismatch, len(yTrue), len(yPred))
	}
	for i := range yTrue {
		if len(yTrue[i]) != k || len(yPred[i]) != k {
			return fmt.Errorf("%w: row %d has %d true and %d predicted columns, want %d",
				domain.ErrShapeMismatch, i, len(yTrue[i]), len(yPred[i]), k)
		}
	}
	return nil
}

func confusionByLabel(yTrue, yPred [][]int, k int) []confusion {
	out := make([]confusion, k)
	for i := range yTrue {
		for j := 0; j < k; j++ {
			t, p := yTrue[i][j] != 0, yPred[i][j] != 0
			switch {
			case t && p:
				out[j].tp++
			case !t && p:
				out[j].fp++
			case t && !p:
				out[j].fn++
			default:
				out[j].tn++
			}
		}
	}
	return out
}

func subsetAccuracy(yTrue, yPred [][]int) float64 {
	match := 0
	for i := range yTrue {
		if rowsEqual(yTrue[i], yPred[i]) {
			match++
		}
	}
	return safeDiv(match, len(yTrue))
}

func rowsEqual(a, b []int) bool {
	for j := range a {
		if (a[j] != 0) != (b[j] != 0) {
			return false
		}
	}
	return true
}
