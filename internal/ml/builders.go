package ml

import "fmt"

func tfidfWordBigrams() *Vectorizer {
	return &Vectorizer{
		Analyzer:  Analyzer{StripAccents: true, NGramMax: 2},
		MinDF:     3,
		TFIDF:     true,
		Sublinear: true,
	}
}

// NewLogRegPipeline builds TF-IDF word 1-2 grams with one-vs-rest balanced
// logistic regression.
func NewLogRegPipeline(labels []string) *Pipeline {
	return &Pipeline{
		Kind:       KindLogReg,
		Labels:     labels,
		Vectorizer: tfidfWordBigrams(),
		trainer:    LogisticRegression{C: 1, MaxIter: 1000, Balanced: true},
	}
}

// NewLinearSVMPipeline builds TF-IDF word 1-2 grams with one-vs-rest balanced
// linear SVMs.
func NewLinearSVMPipeline(labels []string) *Pipeline {
	return &Pipeline{
		Kind:       KindLinearSVM,
		Labels:     labels,
		Vectorizer: tfidfWordBigrams(),
		trainer:    LinearSVM{C: 1, MaxIter: 1000, Balanced: true},
	}
}

// NewMultiNBPipeline builds stop-word-filtered token counts with per-label
// multinomial naive Bayes.
func NewMultiNBPipeline(labels []string) *Pipeline {
	return &Pipeline{
		Kind:       KindMultiNB,
		Labels:     labels,
		Vectorizer: &Vectorizer{Analyzer: Analyzer{StopWords: true, NGramMax: 1}, MinDF: 1},
		trainer:    MultinomialNB{Alpha: 0.1},
	}
}

// Build returns an unfitted pipeline of the given kind.
func Build(kind string, labels []string) (*Pipeline, error) {
	switch kind {
	case KindLogReg:
		return NewLogRegPipeline(labels), nil
	case KindLinearSVM:
		return NewLinearSVMPipeline(labels), nil
	case KindMultiNB:
		return NewMultiNBPipeline(labels), nil
	default:
		return nil, fmt.Errorf("unknown pipeline kind %q", kind)
	}
}

// Kinds lists the supported pipeline kinds in training order.
func Kinds() []string {
	return []string{KindLogReg, KindLinearSVM, KindMultiNB}
}
