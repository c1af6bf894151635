package training

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/toxmod/internal/dataset"
	"github.com/kailas-cloud/toxmod/internal/domain"
	"github.com/kailas-cloud/toxmod/internal/domain/metrics"
	"github.com/kailas-cloud/toxmod/internal/ml"
	"github.com/kailas-cloud/toxmod/internal/tracking"
)

// --- Mocks ---

type mockLoader struct {
	ds  *dataset.Dataset
	err error
}

func (m *mockLoader) Load(context.Context) (*dataset.Dataset, error) { return m.ds, m.err }

type published struct {
	art     domain.Artifact
	aliases []string
}

type mockPublisher struct {
	mu     sync.Mutex
	calls  []published
	failOn string
}

func (m *mockPublisher) Publish(_ context.Context, a domain.Artifact, aliases []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.Metadata.Name == m.failOn {
		return "", errors.New("registry unavailable")
	}
	m.calls = append(m.calls, published{art: a, aliases: aliases})
	return "v1", nil
}

func testDataset() *dataset.Dataset {
	ds := &dataset.Dataset{Labels: domain.DefaultLabels}
	add := func(text string, row []int) {
		ds.TrainText = append(ds.TrainText, text)
		ds.TrainLabels = append(ds.TrainLabels, row)
	}
	for _, s := range []string{
		"you are an idiot and a moron",
		"what an idiot you are",
		"shut up you moron idiot",
		"idiot idiot total moron",
	} {
		add(s, []int{1, 0, 0, 0, 1, 0})
	}
	for _, s := range []string{
		"i will hurt you badly tonight",
		"i will find you and hurt you",
		"watch out i will hurt your family",
		"you will get hurt i promise",
	} {
		add(s, []int{1, 0, 0, 1, 0, 0})
	}
	for _, s := range []string{
		"thanks for the lovely edit",
		"lovely work on this article thanks",
		"the article reads lovely now thanks",
		"thanks again for the helpful sources",
		"helpful sources and lovely formatting",
		"great article thanks for the help",
	} {
		add(s, []int{0, 0, 0, 0, 0, 0})
	}
	ds.TestText = []string{"you idiot moron", "thanks for the lovely article", "i will hurt you"}
	ds.TestLabels = [][]int{{1, 0, 0, 0, 1, 0}, {0, 0, 0, 0, 0, 0}, {1, 0, 0, 1, 0, 0}}
	return ds
}

func newService(t *testing.T, cfg Config, loader DatasetLoader, pub Publisher) (*Service, string) {
	t.Helper()
	root := t.TempDir()
	tr := tracking.NewTracker(root, zap.NewNop())
	cfg.Project = "toxic_comment_prediction"
	cfg.DatasetName = "toxic_comments"
	return New(cfg, loader, tr, pub, zap.NewNop()), root
}

// --- Tests ---

func TestTrain_ReturnsOneRowPerTestText(t *testing.T) {
	ds := testDataset()
	pred, err := Train(ml.NewMultiNBPipeline(ds.Labels), ds.TrainText, ds.TrainLabels, ds.TestText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pred) != len(ds.TestText) || len(pred[0]) != len(ds.Labels) {
		t.Fatalf("unexpected shape %dx%d", len(pred), len(pred[0]))
	}
}

func TestTrain_PropagatesFitErrors(t *testing.T) {
	_, err := Train(ml.NewLogRegPipeline(domain.DefaultLabels), nil, nil, []string{"x"})
	if !errors.Is(err, ml.ErrEmptyTrainingSet) {
		t.Errorf("expected ErrEmptyTrainingSet, got %v", err)
	}
}

func TestRun_PublishesEveryVariant(t *testing.T) {
	pub := &mockPublisher{}
	svc, root := newService(t, Config{}, &mockLoader{ds: testDataset()}, pub)

	results, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 || len(pub.calls) != 3 {
		t.Fatalf("expected 3 results and 3 publishes, got %d and %d", len(results), len(pub.calls))
	}

	wantOrder := []string{"log_reg_model", "linear_svm_model", "multi_nb_model"}
	for i, c := range pub.calls {
		meta := c.art.Metadata
		if meta.Name != wantOrder[i] {
			t.Errorf("publish %d: expected %s, got %s", i, wantOrder[i], meta.Name)
		}
		if !reflect.DeepEqual(c.aliases, []string{"candidate", "latest", meta.ModelKey}) {
			t.Errorf("unexpected aliases %v", c.aliases)
		}
		if _, ok := meta.Metrics[metrics.LabelF1Key("threat")]; !ok {
			t.Errorf("metadata metrics missing per-label f1: %v", meta.Metrics)
		}
		p, err := ml.Decode(c.art.Payload)
		if err != nil {
			t.Fatalf("payload does not decode: %v", err)
		}
		if p.Kind != meta.ModelKey {
			t.Errorf("payload kind %s, metadata key %s", p.Kind, meta.ModelKey)
		}
	}

	if !sort.SliceIsSorted(results, func(i, j int) bool {
		return results[i].Metrics[metrics.MacroF1] > results[j].Metrics[metrics.MacroF1]
	}) {
		t.Error("results must be sorted by macro/f1 descending")
	}

	runs, err := os.ReadDir(filepath.Join(root, "runs"))
	if err != nil {
		t.Fatalf("read runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 tracking runs, got %d", len(runs))
	}
	for _, r := range runs {
		if _, err := os.Stat(filepath.Join(root, "runs", r.Name(), "summary.json")); err != nil {
			t.Errorf("run %s not finished: %v", r.Name(), err)
		}
	}
}

func TestRun_OnlyConfiguredModels(t *testing.T) {
	pub := &mockPublisher{}
	cfg := Config{Models: []ModelSpec{{Key: ml.KindMultiNB, RegistryName: "nb"}}}
	svc, _ := newService(t, cfg, &mockLoader{ds: testDataset()}, pub)

	results, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].RegistryName != "nb" || results[0].Version != "v1" {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestRun_FailureAbortsRemainingVariants(t *testing.T) {
	pub := &mockPublisher{failOn: "linear_svm_model"}
	svc, _ := newService(t, Config{}, &mockLoader{ds: testDataset()}, pub)

	_, err := svc.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "linear_svm") {
		t.Fatalf("expected linear_svm failure, got %v", err)
	}
	if len(pub.calls) != 1 || pub.calls[0].art.Metadata.Name != "log_reg_model" {
		t.Errorf("only log_reg should have been published, got %d publishes", len(pub.calls))
	}
}

func TestRun_LoaderError(t *testing.T) {
	pub := &mockPublisher{}
	svc, _ := newService(t, Config{}, &mockLoader{err: errors.New("404")}, pub)

	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(pub.calls) != 0 {
		t.Error("nothing should be published")
	}
}

func TestRun_UnknownModel(t *testing.T) {
	cfg := Config{Models: []ModelSpec{{Key: "random_forest", RegistryName: "rf"}}}
	svc, _ := newService(t, cfg, &mockLoader{ds: testDataset()}, &mockPublisher{})

	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected error for unknown model kind")
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTable(&buf, []Result{
		{Key: "linear_svm", Metrics: metrics.Record{metrics.MicroF1: 0.75, metrics.MacroF1: 0.5}},
		{Key: "multi_nb", Metrics: metrics.Record{metrics.MicroF1: 0.5, metrics.MacroF1: 0.25}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[0], "key") || !strings.Contains(lines[0], "macro/f1") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if f := strings.Fields(lines[1]); !reflect.DeepEqual(f, []string{"linear_svm", "0.7500", "0.5000"}) {
		t.Errorf("unexpected row %q", lines[1])
	}
}

func TestSelectModels(t *testing.T) {
	all, err := SelectModels(nil)
	if err != nil || !reflect.DeepEqual(all, DefaultModels) {
		t.Fatalf("SelectModels(nil) = %v, %v", all, err)
	}

	got, err := SelectModels([]string{"multi_nb", "log_reg", "multi_nb"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []ModelSpec{
		{Key: ml.KindMultiNB, RegistryName: "multi_nb_model"},
		{Key: ml.KindLogReg, RegistryName: "log_reg_model"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := SelectModels([]string{"random_forest"}); err == nil {
		t.Error("expected error for unknown key")
	}
}
