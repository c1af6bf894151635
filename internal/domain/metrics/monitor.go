package metrics

import "github.com/kailas-cloud/toxmod/internal/domain"

// DefaultAlertThreshold is the exact-match accuracy under which the monitoring
// view raises an alert.
const DefaultAlertThreshold = 0.50

// LabelStats holds monitoring figures for one label.
type LabelStats struct {
	Label             string  `json:"label"`
	PredictedPositive float64 `json:"predicted_positive_rate"`
	TruePositive      float64 `json:"true_positive_rate"`
	Accuracy          float64 `json:"accuracy"`
	Precision         float64 `json:"precision"`
}

// Report is the monitoring summary over logged predictions.
type Report struct {
	Total          int          `json:"total"`
	ExactMatch     float64      `json:"exact_match_accuracy"`
	MacroPrecision float64      `json:"macro_precision"`
	Labels         []LabelStats `json:"labels"`
	Threshold      float64      `json:"alert_threshold"`
	Alert          bool         `json:"alert"`
}

// Matrices rebuilds row-aligned predicted and true indicator matrices from
// logged records. A record without true labels counts as all zeros.
func Matrices(records []domain.PredictionRecord, labels []string) (yTrue, yPred [][]int) {
	yTrue = make([][]int, len(records))
	yPred = make([][]int, len(records))
	for i, r := range records {
		yPred[i] = r.Response.Vector(labels)
		yTrue[i] = r.TrueLabels.Vector(labels)
	}
	return yTrue, yPred
}

// Monitor computes the monitoring report over logged records.
// With no records nothing can be judged, so no alert is raised.
func Monitor(records []domain.PredictionRecord, labels []string, threshold float64) Report {
	yTrue, yPred := Matrices(records, labels)
	perLabel := confusionByLabel(yTrue, yPred, len(labels))

	rep := Report{
		Total:      len(records),
		ExactMatch: subsetAccuracy(yTrue, yPred),
		Labels:     make([]LabelStats, len(labels)),
		Threshold:  threshold,
	}

	var sumP float64
	for j, l := range labels {
		c := perLabel[j]
		rep.Labels[j] = LabelStats{
			Label:             l,
			PredictedPositive: safeDiv(c.tp+c.fp, len(records)),
			TruePositive:      safeDiv(c.tp+c.fn, len(records)),
			Accuracy:          c.accuracy(),
			Precision:         c.precision(),
		}
		sumP += c.precision()
	}
	if len(labels) > 0 {
		rep.MacroPrecision = sumP / float64(len(labels))
	}
	rep.Alert = rep.Total > 0 && rep.ExactMatch < threshold
	return rep
}
