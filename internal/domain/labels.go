package domain

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultLabels is the fixed, ordered toxicity label set. Position i of every
// prediction vector corresponds to DefaultLabels[i].
var DefaultLabels = []string{"toxic", "severe_toxic", "obscene", "threat", "insult", "identity_hate"}

// LabelMap maps a label category to a 0/1 indicator.
type LabelMap map[string]int

// Normalize returns a copy holding every label in labels; absent labels become 0.
// Keys outside labels are dropped.
func (m LabelMap) Normalize(labels []string) LabelMap {
	out := make(LabelMap, len(labels))
	for _, l := range labels {
		out[l] = m[l]
	}
	return out
}

// Validate checks that every value is 0 or 1 and every key is a known label.
func (m LabelMap) Validate(labels []string) error {
	for k, v := range m {
		if !slices.Contains(labels, k) {
			return fmt.Errorf("%w: unknown label %q", ErrValidation, k)
		}
		if v != 0 && v != 1 {
			return fmt.Errorf("%w: label %q must be 0 or 1, got %d", ErrValidation, k, v)
		}
	}
	return nil
}

// Vector returns the indicators in labels order.
func (m LabelMap) Vector(labels []string) []int {
	v := make([]int, len(labels))
	for i, l := range labels {
		v[i] = m[l]
	}
	return v
}

// LabelMapFromVector maps a positional vector onto labels. It fails when the
// lengths differ.
func LabelMapFromVector(labels []string, vec []int) (LabelMap, error) {
	if len(vec) != len(labels) {
		return nil, fmt.Errorf("%w: got %d outputs for %d labels", ErrLabelMismatch, len(vec), len(labels))
	}
	m := make(LabelMap, len(labels))
	for i, l := range labels {
		m[l] = vec[i]
	}
	return m, nil
}

// PrettyLabel turns "severe_toxic" into "Severe Toxic".
func PrettyLabel(label string) string {
	parts := strings.Split(label, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
