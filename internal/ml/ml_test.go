package ml

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/kailas-cloud/toxmod/internal/domain"
)

var labels = domain.DefaultLabels

// corpus returns a small separable set: insults carry toxic+insult, threats
// carry toxic+threat, the rest are clean.
func corpus() ([]string, [][]int) {
	var texts []string
	var y [][]int
	insults := []string{
		"you are an idiot and a moron",
		"what an idiot you are",
		"shut up you moron idiot",
		"idiot idiot total moron",
	}
	threats := []string{
		"i will hurt you badly tonight",
		"i will find you and hurt you",
		"watch out i will hurt your family",
		"you will get hurt i promise",
	}
	clean := []string{
		"thanks for the lovely edit",
		"lovely work on this article thanks",
		"the article reads lovely now thanks",
		"thanks again for the helpful sources",
		"helpful sources and lovely formatting",
		"great article thanks for the help",
	}
	for _, t := range insults {
		texts = append(texts, t)
		y = append(y, []int{1, 0, 0, 0, 1, 0})
	}
	for _, t := range threats {
		texts = append(texts, t)
		y = append(y, []int{1, 0, 0, 1, 0, 0})
	}
	for _, t := range clean {
		texts = append(texts, t)
		y = append(y, []int{0, 0, 0, 0, 0, 0})
	}
	return texts, y
}

func TestAnalyzer_Terms(t *testing.T) {
	a := Analyzer{StripAccents: true, NGramMax: 2}
	got := a.Terms("Café is GREAT, a b!")
	want := []string{"cafe", "is", "great", "cafe is", "is great"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Terms = %q, want %q", got, want)
	}
}

func TestAnalyzer_StopWords(t *testing.T) {
	a := Analyzer{StopWords: true}
	got := a.Terms("You are the worst editor")
	want := []string{"worst", "editor"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Terms = %q, want %q", got, want)
	}
}

func TestVectorizer_MinDFPrunes(t *testing.T) {
	v := &Vectorizer{MinDF: 2}
	if err := v.Fit([]string{"red apple", "red pear", "green apple"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(v.Terms, []string{"apple", "red"}) {
		t.Errorf("unexpected vocabulary %q", v.Terms)
	}
}

func TestVectorizer_EmptyVocabulary(t *testing.T) {
	v := &Vectorizer{MinDF: 3}
	err := v.Fit([]string{"one", "two"})
	if !errors.Is(err, ErrEmptyVocabulary) {
		t.Errorf("expected ErrEmptyVocabulary, got %v", err)
	}
}

func TestVectorizer_TFIDFRowsAreUnitNorm(t *testing.T) {
	v := &Vectorizer{TFIDF: true, Sublinear: true}
	texts := []string{"spam spam eggs", "eggs ham", "ham ham ham spam"}
	if err := v.Fit(texts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// every term appears in two of three docs: idf = ln(4/3) + 1
	for i, idf := range v.IDF {
		if math.Abs(idf-(math.Log(4.0/3.0)+1)) > 1e-12 {
			t.Errorf("idf[%d] = %f", i, idf)
		}
	}
	x, err := v.Transform(texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, row := range x {
		if n := row.SquaredNorm(); math.Abs(n-1) > 1e-9 {
			t.Errorf("row %d squared norm = %f", i, n)
		}
	}
}

func TestVectorizer_TransformBeforeFit(t *testing.T) {
	v := &Vectorizer{}
	if _, err := v.Transform([]string{"x"}); !errors.Is(err, ErrNotFitted) {
		t.Errorf("expected ErrNotFitted, got %v", err)
	}
}

func TestPipelines_FitAndPredict(t *testing.T) {
	texts, y := corpus()
	for _, kind := range Kinds() {
		t.Run(kind, func(t *testing.T) {
			p, err := Build(kind, labels)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if err := p.Fit(texts, y); err != nil {
				t.Fatalf("fit: %v", err)
			}

			pred, err := p.Predict([]string{"you idiot moron", "thanks for the lovely article", "i will hurt you"})
			if err != nil {
				t.Fatalf("predict: %v", err)
			}
			if len(pred) != 3 {
				t.Fatalf("expected 3 rows, got %d", len(pred))
			}
			for i, row := range pred {
				if len(row) != len(labels) {
					t.Fatalf("row %d has %d columns", i, len(row))
				}
			}
			if pred[0][0] != 1 || pred[0][4] != 1 {
				t.Errorf("insult not detected: %v", pred[0])
			}
			if !reflect.DeepEqual(pred[1], []int{0, 0, 0, 0, 0, 0}) {
				t.Errorf("clean comment flagged: %v", pred[1])
			}
			if pred[2][3] != 1 {
				t.Errorf("threat not detected: %v", pred[2])
			}
			// severe_toxic, obscene and identity_hate never occur in training.
			for _, row := range pred {
				if row[1] != 0 || row[2] != 0 || row[5] != 0 {
					t.Errorf("constant label predicted positive: %v", row)
				}
			}
		})
	}
}

func TestPipeline_FitErrors(t *testing.T) {
	p := NewMultiNBPipeline(labels)
	if err := p.Fit(nil, nil); !errors.Is(err, ErrEmptyTrainingSet) {
		t.Errorf("expected ErrEmptyTrainingSet, got %v", err)
	}
	if err := p.Fit([]string{"a text"}, [][]int{{1, 0}}); !errors.Is(err, domain.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}

	lr := NewLogRegPipeline(labels)
	err := lr.Fit([]string{"alpha beta", "gamma delta"}, [][]int{{0, 0, 0, 0, 0, 0}, {1, 0, 0, 0, 0, 0}})
	if !errors.Is(err, ErrEmptyVocabulary) {
		t.Errorf("expected ErrEmptyVocabulary with min_df=3, got %v", err)
	}
}

func TestPipeline_PredictBeforeFit(t *testing.T) {
	if _, err := NewLinearSVMPipeline(labels).Predict([]string{"x"}); !errors.Is(err, ErrNotFitted) {
		t.Errorf("expected ErrNotFitted, got %v", err)
	}
}

func TestBuild_UnknownKind(t *testing.T) {
	if _, err := Build("random_forest", labels); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestCodec_RoundTripKeepsPredictions(t *testing.T) {
	texts, y := corpus()
	p := NewLinearSVMPipeline(labels)
	if err := p.Fit(texts, y); err != nil {
		t.Fatalf("fit: %v", err)
	}
	payload, err := Encode(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	restored, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if restored.Kind != KindLinearSVM || !reflect.DeepEqual(restored.Labels, labels) {
		t.Errorf("unexpected header: %s %v", restored.Kind, restored.Labels)
	}

	probe := append([]string{"unseen words only"}, texts...)
	want, _ := p.Predict(probe)
	got, err := restored.Predict(probe)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Error("restored pipeline predicts differently")
	}
}

func TestCodec_Errors(t *testing.T) {
	if _, err := Encode(NewMultiNBPipeline(labels)); !errors.Is(err, ErrNotFitted) {
		t.Errorf("expected ErrNotFitted, got %v", err)
	}
	if _, err := Decode([]byte("not zstd")); !errors.Is(err, ErrBadPayload) {
		t.Errorf("expected ErrBadPayload, got %v", err)
	}
}
