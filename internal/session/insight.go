package session

import (
	"fmt"

	"github.com/neurolens/agent/internal/model/emotion"
)

// Insight generation tunables.
const (
	// InsightMinSamples gates generation until enough history exists.
	InsightMinSamples = 10
	// InsightWindow is how many of the newest samples each cycle inspects.
	InsightWindow = 20
	// volatilityThreshold flags an unstable primary label.
	volatilityThreshold = 0.1
	// trendThreshold separates a real half-window shift from noise.
	trendThreshold = 0.1
)

// GenerateInsights derives qualitative statements from the most recent
// samples. The returned list fully replaces any previous one; an empty or
// too-small window yields nil.
func GenerateInsights(samples []emotion.Sample, labels emotion.LabelSet, primary string) []string {
	if len(samples) < InsightMinSamples {
		return nil
	}

	window := samples
	if len(window) > InsightWindow {
		window = window[len(window)-InsightWindow:]
	}

	var insights []string

	if dominant := windowDominant(window, labels); dominant != "" {
		insights = append(insights, fmt.Sprintf("Your dominant emotion recently has been %s.", dominant))
	}

	values := make([]float64, len(window))
	for i, sample := range window {
		values[i] = sample.Emotions[primary]
	}

	if variance(values) > volatilityThreshold {
		insights = append(insights, fmt.Sprintf("Your %s levels have been highly variable.", primary))
	}

	first := values[:len(values)/2]
	second := values[len(values)/2:]
	delta := mean(second) - mean(first)
	switch {
	case delta > trendThreshold:
		insights = append(insights, fmt.Sprintf("Your %s has been trending upward.", primary))
	case delta < -trendThreshold:
		insights = append(insights, fmt.Sprintf("Your %s has been trending downward.", primary))
	}

	return insights
}

// windowDominant tallies per-sample dominant labels and returns the most
// frequent one, breaking count ties by declared label order.
func windowDominant(window []emotion.Sample, labels emotion.LabelSet) string {
	counts := make(map[string]int, labels.Len())
	for _, sample := range window {
		if label := labels.Dominant(sample); label != "" {
			counts[label]++
		}
	}

	best := ""
	for _, label := range labels.Labels() {
		if counts[label] > 0 && (best == "" || counts[label] > counts[best]) {
			best = label
		}
	}
	if best != "" {
		return best
	}
	// Fall back to undeclared labels if no declared one ever dominated.
	for label, count := range counts {
		if best == "" || count > counts[best] || (count == counts[best] && label < best) {
			best = label
		}
	}
	return best
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}
