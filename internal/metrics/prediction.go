package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Prediction outcomes used as the "outcome" label.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// Prediction service Prometheus metrics.
var (
	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "toxmod",
			Name:      "predictions_total",
			Help:      "Total number of prediction requests by outcome",
		},
		[]string{"model", "outcome"},
	)

	PositivePredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "toxmod",
			Name:      "positive_predictions_total",
			Help:      "Total number of positive predictions per label",
		},
		[]string{"model", "label"},
	)

	InferenceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "toxmod",
			Name:      "inference_duration_seconds",
			Help:      "Pipeline inference duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"model"},
	)

	LogAppendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "toxmod",
			Name:      "prediction_log_appends_total",
			Help:      "Prediction log writes by backend and result",
		},
		[]string{"backend", "result"}, // "ok" / "error"
	)

	ModelLoaded = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "toxmod",
			Name:      "model_loaded",
			Help:      "1 when a model artifact is loaded, labelled by artifact name and version",
		},
		[]string{"name", "version"},
	)
)

var registerPredictionOnce sync.Once

// RegisterPredictionMetrics registers the prediction metrics with the default registry.
func RegisterPredictionMetrics() {
	registerPredictionOnce.Do(func() {
		prometheus.MustRegister(PredictionsTotal)
		prometheus.MustRegister(PositivePredictionsTotal)
		prometheus.MustRegister(InferenceDuration)
		prometheus.MustRegister(LogAppendsTotal)
		prometheus.MustRegister(ModelLoaded)
	})
}
