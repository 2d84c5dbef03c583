package session

import (
	"github.com/neurolens/agent/internal/model/emotion"
)

// LabelStats holds the derived figures for one emotion label.
type LabelStats struct {
	Average float64 `json:"average"`
	Maximum float64 `json:"maximum"`
	Trend   float64 `json:"trend"`
}

// Stats maps each declared label to its derived statistics. It carries no
// state of its own: every value is reproducible from the history alone.
type Stats map[string]LabelStats

// ComputeStats derives per-label statistics with a full pass over the
// buffered samples. A label missing from a sample counts as 0 toward the
// average, mirroring the dense vectors the inference service emits.
func ComputeStats(samples []emotion.Sample, labels emotion.LabelSet) Stats {
	stats := make(Stats, labels.Len())
	n := len(samples)

	for _, label := range labels.Labels() {
		var entry LabelStats
		if n == 0 {
			stats[label] = entry
			continue
		}

		sum := 0.0
		for _, sample := range samples {
			value := sample.Emotions[label]
			sum += value
			if value > entry.Maximum {
				entry.Maximum = value
			}
		}
		entry.Average = sum / float64(n)

		if n >= 2 {
			entry.Trend = samples[n-1].Emotions[label] - samples[n-2].Emotions[label]
		}

		stats[label] = entry
	}

	return stats
}
