// Package dataset loads the labelled comment datasets used for training.
package dataset

// Dataset holds train and held-out texts with their indicator matrices.
// Columns of every matrix follow Labels.
type Dataset struct {
	Labels      []string
	TrainText   []string
	TrainLabels [][]int
	TestText    []string
	TestLabels  [][]int
}

// Stats returns the training-set size and the positive rate of each label,
// keyed as "train_size" and "<label>_pct".
func (d *Dataset) Stats() map[string]float64 {
	stats := map[string]float64{"train_size": float64(len(d.TrainText))}
	for j, l := range d.Labels {
		pos := 0
		for _, row := range d.TrainLabels {
			if row[j] != 0 {
				pos++
			}
		}
		rate := 0.0
		if len(d.TrainLabels) > 0 {
			rate = float64(pos) / float64(len(d.TrainLabels))
		}
		stats[l+"_pct"] = rate
	}
	return stats
}
