package prediction

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/toxmod/internal/domain"
	"github.com/kailas-cloud/toxmod/internal/metrics"
)

// Service serves predictions from a single read-only model.
type Service struct {
	state  ModelState
	labels []string
	log    LogStore
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Service.
func New(state ModelState, labels []string, log LogStore, logger *zap.Logger) *Service {
	return &Service{state: state, labels: labels, log: log, logger: logger, now: time.Now}
}

// WithClock overrides the timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// State returns the model state the service was built with.
func (s *Service) State() ModelState { return s.state }

// Model returns the metadata of the loaded artifact.
func (s *Service) Model() (domain.ArtifactMetadata, error) {
	meta, ok := s.state.Metadata()
	if !ok {
		return domain.ArtifactMetadata{}, domain.ErrModelNotLoaded
	}
	return meta, nil
}

// Predict classifies text, appends the record to the prediction log and
// returns it. trueLabels is optional and normalised to the full label set.
// A failed log append is reported through logs and metrics only.
func (s *Service) Predict(ctx context.Context, text string, trueLabels domain.LabelMap) (domain.PredictionRecord, error) {
	meta, ok := s.state.Metadata()
	if !ok {
		metrics.PredictionsTotal.WithLabelValues("", metrics.OutcomeUnavailable).Inc()
		return domain.PredictionRecord{}, domain.ErrModelNotLoaded
	}
	model := meta.Name

	if trueLabels != nil {
		if err := trueLabels.Validate(s.labels); err != nil {
			metrics.PredictionsTotal.WithLabelValues(model, metrics.OutcomeInvalid).Inc()
			return domain.PredictionRecord{}, err
		}
		trueLabels = trueLabels.Normalize(s.labels)
	}

	start := time.Now()
	rows, err := s.state.predictor.Predict([]string{text})
	metrics.InferenceDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PredictionsTotal.WithLabelValues(model, metrics.OutcomeError).Inc()
		return domain.PredictionRecord{}, &domain.InferenceError{Err: err}
	}
	if len(rows) != 1 {
		metrics.PredictionsTotal.WithLabelValues(model, metrics.OutcomeError).Inc()
		return domain.PredictionRecord{}, &domain.InferenceError{Err: fmt.Errorf("got %d rows for 1 text", len(rows))}
	}
	response, err := domain.LabelMapFromVector(s.labels, rows[0])
	if err != nil {
		metrics.PredictionsTotal.WithLabelValues(model, metrics.OutcomeError).Inc()
		return domain.PredictionRecord{}, &domain.InferenceError{Err: err}
	}

	rec := domain.NewPredictionRecord(s.now(), text, response, trueLabels)
	s.appendLog(ctx, rec)

	metrics.PredictionsTotal.WithLabelValues(model, metrics.OutcomeOK).Inc()
	for _, l := range s.labels {
		if response[l] != 0 {
			metrics.PositivePredictionsTotal.WithLabelValues(model, l).Inc()
		}
	}
	return rec, nil
}

func (s *Service) appendLog(ctx context.Context, rec domain.PredictionRecord) {
	if s.log == nil {
		return
	}
	res := s.log.Append(ctx, rec)
	if res.OK() {
		metrics.LogAppendsTotal.WithLabelValues(res.Backend, "ok").Inc()
		return
	}
	metrics.LogAppendsTotal.WithLabelValues(res.Backend, "error").Inc()
	s.logger.Warn("Failed to save prediction to log",
		zap.String("backend", res.Backend),
		zap.Error(res.Err),
	)
}
