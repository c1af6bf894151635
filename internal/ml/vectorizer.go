package ml

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrEmptyVocabulary signals that no term survived vocabulary pruning.
	ErrEmptyVocabulary = errors.New("empty vocabulary")
	// ErrEmptyTrainingSet signals a fit call without documents.
	ErrEmptyTrainingSet = errors.New("empty training set")
	// ErrNotFitted signals use of a pipeline before Fit.
	ErrNotFitted = errors.New("pipeline is not fitted")
)

// SparseVec is a sparse row with strictly increasing indices.
type SparseVec struct {
	Idx []int
	Val []float64
}

// Dot returns the inner product with a dense weight vector.
func (v SparseVec) Dot(w []float64) float64 {
	var s float64
	for k, i := range v.Idx {
		s += v.Val[k] * w[i]
	}
	return s
}

// AddScaled performs w += a*v.
func (v SparseVec) AddScaled(w []float64, a float64) {
	for k, i := range v.Idx {
		w[i] += a * v.Val[k]
	}
}

// SquaredNorm returns the squared L2 norm.
func (v SparseVec) SquaredNorm() float64 {
	return floats.Dot(v.Val, v.Val)
}

// Vectorizer maps text to sparse term vectors. With TFIDF unset it yields raw
// term counts.
type Vectorizer struct {
	Analyzer  Analyzer  `json:"analyzer"`
	MinDF     int       `json:"min_df"`
	TFIDF     bool      `json:"tfidf"`
	Sublinear bool      `json:"sublinear_tf"`
	Terms     []string  `json:"terms"`
	IDF       []float64 `json:"idf,omitempty"`

	vocab map[string]int
}

// Dim returns the vocabulary size.
func (v *Vectorizer) Dim() int { return len(v.Terms) }

// Fit learns the vocabulary (and idf weights) from texts.
func (v *Vectorizer) Fit(texts []string) error {
	if len(texts) == 0 {
		return ErrEmptyTrainingSet
	}

	df := make(map[string]int)
	for _, t := range texts {
		seen := make(map[string]struct{})
		for _, term := range v.Analyzer.Terms(t) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	minDF := v.MinDF
	if minDF < 1 {
		minDF = 1
	}
	terms := make([]string, 0, len(df))
	for term, n := range df {
		if n >= minDF {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return ErrEmptyVocabulary
	}
	sort.Strings(terms)
	v.Terms = terms

	v.IDF = nil
	if v.TFIDF {
		n := float64(len(texts))
		v.IDF = make([]float64, len(terms))
		for i, term := range terms {
			v.IDF[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
		}
	}
	v.index()
	return nil
}

func (v *Vectorizer) index() {
	v.vocab = make(map[string]int, len(v.Terms))
	for i, term := range v.Terms {
		v.vocab[term] = i
	}
}

// Transform vectorizes texts against the fitted vocabulary. Unknown terms are ignored.
func (v *Vectorizer) Transform(texts []string) ([]SparseVec, error) {
	if v.vocab == nil {
		return nil, ErrNotFitted
	}
	out := make([]SparseVec, len(texts))
	for d, t := range texts {
		out[d] = v.transformOne(t)
	}
	return out, nil
}

func (v *Vectorizer) transformOne(text string) SparseVec {
	counts := make(map[int]float64)
	for _, term := range v.Analyzer.Terms(text) {
		if i, ok := v.vocab[term]; ok {
			counts[i]++
		}
	}

	vec := SparseVec{Idx: make([]int, 0, len(counts)), Val: make([]float64, 0, len(counts))}
	for i := range counts {
		vec.Idx = append(vec.Idx, i)
	}
	sort.Ints(vec.Idx)
	for _, i := range vec.Idx {
		x := counts[i]
		if v.TFIDF {
			if v.Sublinear {
				x = 1 + math.Log(x)
			}
			x *= v.IDF[i]
		}
		vec.Val = append(vec.Val, x)
	}

	if v.TFIDF {
		if n := floats.Norm(vec.Val, 2); n > 0 {
			floats.Scale(1/n, vec.Val)
		}
	}
	return vec
}
