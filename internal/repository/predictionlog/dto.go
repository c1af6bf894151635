// Package predictionlog persists served predictions and reads them back for monitoring.
package predictionlog

import (
	"github.com/kailas-cloud/toxmod/internal/domain"
)

// item is the DynamoDB row. id is the partition key; the remaining
// attributes mirror the /predict response.
type item struct {
	ID          string         `dynamodbav:"id"`
	Timestamp   string         `dynamodbav:"timestamp"`
	RequestText string         `dynamodbav:"request_text"`
	Response    map[string]int `dynamodbav:"response"`
	TrueLabels  map[string]int `dynamodbav:"true_labels"`
}

func toItem(id string, rec domain.PredictionRecord) item {
	return item{
		ID:          id,
		Timestamp:   rec.Timestamp,
		RequestText: rec.RequestText,
		Response:    rec.Response,
		TrueLabels:  rec.TrueLabels,
	}
}

func (it item) record() domain.PredictionRecord {
	return domain.PredictionRecord{
		Timestamp:   it.Timestamp,
		RequestText: it.RequestText,
		Response:    it.Response,
		TrueLabels:  it.TrueLabels,
	}
}
