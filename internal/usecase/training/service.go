package training

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sort"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/toxmod/internal/dataset"
	"github.com/kailas-cloud/toxmod/internal/domain"
	"github.com/kailas-cloud/toxmod/internal/domain/metrics"
	"github.com/kailas-cloud/toxmod/internal/ml"
	"github.com/kailas-cloud/toxmod/internal/tracking"
)

// Alias names moved onto every published artifact besides the model key.
const (
	AliasCandidate = "candidate"
	AliasLatest    = "latest"
)

// ModelSpec names one pipeline variant and the registry it publishes to.
type ModelSpec struct {
	Key          string
	RegistryName string
}

// DefaultModels is the training order: logistic regression, linear SVM, naive Bayes.
var DefaultModels = []ModelSpec{
	{Key: ml.KindLogReg, RegistryName: "log_reg_model"},
	{Key: ml.KindLinearSVM, RegistryName: "linear_svm_model"},
	{Key: ml.KindMultiNB, RegistryName: "multi_nb_model"},
}

// SelectModels returns the DefaultModels entries named by keys, in the order given.
// An empty keys selects every default model.
func SelectModels(keys []string) ([]ModelSpec, error) {
	if len(keys) == 0 {
		return DefaultModels, nil
	}
	out := make([]ModelSpec, 0, len(keys))
	for _, k := range keys {
		idx := slices.IndexFunc(DefaultModels, func(m ModelSpec) bool { return m.Key == k })
		if idx < 0 {
			return nil, fmt.Errorf("unknown model %q (known: %v)", k, ml.Kinds())
		}
		if slices.ContainsFunc(out, func(m ModelSpec) bool { return m.Key == k }) {
			continue
		}
		out = append(out, DefaultModels[idx])
	}
	return out, nil
}

// Config holds training parameters.
type Config struct {
	Project     string
	DatasetName string
	Models      []ModelSpec
}

// Result is the outcome of one trained variant.
type Result struct {
	Key          string
	RegistryName string
	Version      string
	Metrics      metrics.Record
}

// Train fits pipeline on the training split and predicts the test texts.
func Train(p *ml.Pipeline, trainText []string, trainLabels [][]int, testText []string) ([][]int, error) {
	if err := p.Fit(trainText, trainLabels); err != nil {
		return nil, fmt.Errorf("fit %s: %w", p.Kind, err)
	}
	pred, err := p.Predict(testText)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", p.Kind, err)
	}
	return pred, nil
}

// Service runs the training workflow.
type Service struct {
	cfg       Config
	loader    DatasetLoader
	tracker   Tracker
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a Service.
func New(cfg Config, loader DatasetLoader, tracker Tracker, publisher Publisher, logger *zap.Logger) *Service {
	if len(cfg.Models) == 0 {
		cfg.Models = DefaultModels
	}
	return &Service{
		cfg:       cfg,
		loader:    loader,
		tracker:   tracker,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Run loads the dataset once, then fits, scores and publishes each configured
// variant in order. The first failure aborts the run. Results are sorted by
// macro F1, best first.
func (s *Service) Run(ctx context.Context) ([]Result, error) {
	ds, err := s.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	s.logger.Info("Dataset loaded",
		zap.Int("train", len(ds.TrainText)),
		zap.Int("test", len(ds.TestText)),
	)

	results := make([]Result, 0, len(s.cfg.Models))
	for _, spec := range s.cfg.Models {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := s.runOne(ctx, spec, ds)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Key, err)
		}
		results = append(results, res)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Metrics[metrics.MacroF1] > results[j].Metrics[metrics.MacroF1]
	})
	return results, nil
}

func (s *Service) runOne(ctx context.Context, spec ModelSpec, ds *dataset.Dataset) (Result, error) {
	log := s.logger.With(zap.String("model", spec.Key))

	p, err := ml.Build(spec.Key, ds.Labels)
	if err != nil {
		return Result{}, err
	}

	run, err := s.tracker.Start(ctx, tracking.RunOptions{
		Project: s.cfg.Project,
		Name:    spec.Key + "-experiment",
		Model:   spec.Key,
		Config: map[string]string{
			"dataset":       s.cfg.DatasetName,
			"model_name":    spec.Key,
			"registry_name": spec.RegistryName,
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("start run: %w", err)
	}
	defer func() {
		if err := run.Finish(ctx); err != nil {
			log.Warn("Failed to finish tracking run", zap.Error(err))
		}
	}()

	if err := run.Log(ds.Stats()); err != nil {
		return Result{}, fmt.Errorf("log dataset stats: %w", err)
	}

	log.Info("Training")
	start := s.now()
	pred, err := Train(p, ds.TrainText, ds.TrainLabels, ds.TestText)
	if err != nil {
		return Result{}, err
	}
	log.Info("Trained", zap.Duration("took", s.now().Sub(start)), zap.Int("vocabulary", p.Vectorizer.Dim()))

	rec, err := metrics.Compute(ds.TestLabels, pred, ds.Labels)
	if err != nil {
		return Result{}, fmt.Errorf("compute metrics: %w", err)
	}
	if err := run.Log(rec); err != nil {
		return Result{}, fmt.Errorf("log metrics: %w", err)
	}
	if err := run.UpdateSummary(ctx, rec); err != nil {
		return Result{}, fmt.Errorf("update summary: %w", err)
	}

	payload, err := ml.Encode(p)
	if err != nil {
		return Result{}, fmt.Errorf("encode pipeline: %w", err)
	}
	version, err := s.publisher.Publish(ctx, domain.Artifact{
		Metadata: domain.ArtifactMetadata{
			Name:      spec.RegistryName,
			ModelKey:  spec.Key,
			Kind:      p.Kind,
			Labels:    ds.Labels,
			Metrics:   rec,
			CreatedAt: s.now().UTC(),
		},
		Payload: payload,
	}, []string{AliasCandidate, AliasLatest, spec.Key})
	if err != nil {
		return Result{}, fmt.Errorf("publish artifact: %w", err)
	}

	log.Info("Experiment completed",
		zap.String("registry_name", spec.RegistryName),
		zap.String("version", version),
		zap.Float64("micro_f1", rec[metrics.MicroF1]),
		zap.Float64("macro_f1", rec[metrics.MacroF1]),
	)
	return Result{Key: spec.Key, RegistryName: spec.RegistryName, Version: version, Metrics: rec}, nil
}

// WriteTable prints key, micro/f1 and macro/f1 for each result.
func WriteTable(w io.Writer, results []Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "key\t%s\t%s\n", metrics.MicroF1, metrics.MacroF1)
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\n", r.Key, r.Metrics[metrics.MicroF1], r.Metrics[metrics.MacroF1])
	}
	return tw.Flush()
}
