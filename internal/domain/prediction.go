package domain

import "time"

// TimestampLayout is the ISO-8601 layout used for prediction timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// PredictionRecord is one served prediction. It is appended to the prediction
// log once and never modified.
type PredictionRecord struct {
	Timestamp   string   `json:"timestamp"`
	RequestText string   `json:"request_text"`
	Response    LabelMap `json:"response"`
	TrueLabels  LabelMap `json:"true_labels"`
}

// NewPredictionRecord builds a record stamped with at. trueLabels may be nil.
func NewPredictionRecord(at time.Time, text string, response, trueLabels LabelMap) PredictionRecord {
	return PredictionRecord{
		Timestamp:   at.Format(TimestampLayout),
		RequestText: text,
		Response:    response,
		TrueLabels:  trueLabels,
	}
}

// Predictor produces one indicator row per input text, columns in label order.
type Predictor interface {
	Predict(texts []string) ([][]int, error)
}

// AppendResult reports the outcome of writing a record to the prediction log.
// A failed append never fails the prediction that produced it.
type AppendResult struct {
	Backend string
	Err     error
}

// OK reports whether the record was stored.
func (r AppendResult) OK() bool { return r.Err == nil }
