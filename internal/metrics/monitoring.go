package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/toxmod/internal/domain"
	dommetrics "github.com/kailas-cloud/toxmod/internal/domain/metrics"
)

var (
	monitoringUpDesc = prometheus.NewDesc(
		"toxmod_monitoring_up",
		"1 if the prediction log could be read on this scrape",
		nil, nil,
	)
	monitoringTotalDesc = prometheus.NewDesc(
		"toxmod_monitoring_logged_predictions",
		"Number of logged predictions",
		nil, nil,
	)
	monitoringExactMatchDesc = prometheus.NewDesc(
		"toxmod_monitoring_exact_match_accuracy",
		"Fraction of logged predictions whose vector equals the true labels",
		nil, nil,
	)
	monitoringMacroPrecisionDesc = prometheus.NewDesc(
		"toxmod_monitoring_macro_precision",
		"Unweighted mean of per-label precision over logged predictions",
		nil, nil,
	)
	monitoringAlertDesc = prometheus.NewDesc(
		"toxmod_monitoring_alert",
		"1 when exact-match accuracy is below the alert threshold",
		nil, nil,
	)
	monitoringLabelDesc = prometheus.NewDesc(
		"toxmod_monitoring_label_ratio",
		"Per-label monitoring ratios over logged predictions",
		[]string{"label", "stat"},
		nil,
	)
)

// RecordLister reads the full prediction log.
type RecordLister interface {
	List(ctx context.Context) ([]domain.PredictionRecord, error)
}

// MonitoringCollector recomputes the monitoring report from the prediction
// log on every scrape.
type MonitoringCollector struct {
	source    RecordLister
	labels    []string
	threshold float64
	timeout   time.Duration
	logger    *zap.Logger
}

// NewMonitoringCollector creates a collector over source.
func NewMonitoringCollector(
	source RecordLister, labels []string, threshold float64, timeout time.Duration, logger *zap.Logger,
) *MonitoringCollector {
	return &MonitoringCollector{
		source:    source,
		labels:    labels,
		threshold: threshold,
		timeout:   timeout,
		logger:    logger,
	}
}

// Describe sends the metric descriptors to the channel.
func (c *MonitoringCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- monitoringUpDesc
	ch <- monitoringTotalDesc
	ch <- monitoringExactMatchDesc
	ch <- monitoringMacroPrecisionDesc
	ch <- monitoringAlertDesc
	ch <- monitoringLabelDesc
}

// Collect reads the log and emits the report as gauges.
func (c *MonitoringCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	records, err := c.source.List(ctx)
	if err != nil {
		c.logger.Error("Failed to read prediction log for metrics", zap.Error(err))
		ch <- prometheus.MustNewConstMetric(monitoringUpDesc, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(monitoringUpDesc, prometheus.GaugeValue, 1)

	rep := dommetrics.Monitor(records, c.labels, c.threshold)
	alert := 0.0
	if rep.Alert {
		alert = 1
	}
	ch <- prometheus.MustNewConstMetric(monitoringTotalDesc, prometheus.GaugeValue, float64(rep.Total))
	ch <- prometheus.MustNewConstMetric(monitoringExactMatchDesc, prometheus.GaugeValue, rep.ExactMatch)
	ch <- prometheus.MustNewConstMetric(monitoringMacroPrecisionDesc, prometheus.GaugeValue, rep.MacroPrecision)
	ch <- prometheus.MustNewConstMetric(monitoringAlertDesc, prometheus.GaugeValue, alert)
	for _, l := range rep.Labels {
		ch <- prometheus.MustNewConstMetric(monitoringLabelDesc, prometheus.GaugeValue, l.PredictedPositive, l.Label, "predicted_positive_rate")
		ch <- prometheus.MustNewConstMetric(monitoringLabelDesc, prometheus.GaugeValue, l.TruePositive, l.Label, "true_positive_rate")
		ch <- prometheus.MustNewConstMetric(monitoringLabelDesc, prometheus.GaugeValue, l.Accuracy, l.Label, "accuracy")
		ch <- prometheus.MustNewConstMetric(monitoringLabelDesc, prometheus.GaugeValue, l.Precision, l.Label, "precision")
	}
}
