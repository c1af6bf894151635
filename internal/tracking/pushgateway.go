package tracking

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Pushgateway publishes run summaries as toxmod_training_metric{model,metric} gauges.
type Pushgateway struct {
	url string
	job string
}

var _ SummaryPublisher = (*Pushgateway)(nil)

// NewPushgateway creates a publisher for the gateway at url.
func NewPushgateway(url, job string) *Pushgateway {
	if job == "" {
		job = "toxmod_train"
	}
	return &Pushgateway{url: url, job: job}
}

// PublishSummary replaces the metrics grouped under the run's id.
func (p *Pushgateway) PublishSummary(ctx context.Context, run RunInfo, summary map[string]float64) error {
	gauge := SummaryGauge(run, summary)
	err := push.New(p.url, p.job).
		Collector(gauge).
		Grouping("run_id", run.ID).
		Grouping("group", run.Group).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push summary: %w", err)
	}
	return nil
}

// SummaryGauge renders a summary as a gauge vector labelled by model and metric.
func SummaryGauge(run RunInfo, summary map[string]float64) *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "toxmod",
		Subsystem: "training",
		Name:      "metric",
		Help:      "Latest value of a training run summary metric.",
	}, []string{"model", "metric"})
	for k, v := range summary {
		g.WithLabelValues(run.Model, k).Set(v)
	}
	return g
}
