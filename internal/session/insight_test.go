package session

import (
	"strings"
	"testing"

	"github.com/neurolens/agent/internal/model/emotion"
)

func TestGenerateInsightsRequiresMinimumHistory(t *testing.T) {
	labels := emotion.NewLabelSet(nil)

	samples := make([]emotion.Sample, 0, InsightMinSamples-1)
	for i := 0; i < InsightMinSamples-1; i++ {
		samples = append(samples, sampleAt(int64(i), 0.5))
	}

	if got := GenerateInsights(samples, labels, "joy"); got != nil {
		t.Fatalf("expected no insights below minimum history, got %v", got)
	}
}

func TestGenerateInsightsUpwardTrend(t *testing.T) {
	labels := emotion.NewLabelSet(nil)

	// joy ramps 0.1 -> 0.9 over the first 10 samples, then holds at 0.9.
	// The periodic cycle fires mid-feed, around the 20th sample, where the
	// half-window contrast is sharpest.
	samples := make([]emotion.Sample, 0, 20)
	for i := 1; i <= 10; i++ {
		samples = append(samples, sampleAt(int64(i), 0.1+0.8*float64(i-1)/9))
	}
	for i := 11; i <= 20; i++ {
		samples = append(samples, sampleAt(int64(i), 0.9))
	}

	insights := GenerateInsights(samples, labels, "joy")
	if len(insights) == 0 {
		t.Fatal("expected insights for trending window")
	}

	found := false
	for _, s := range insights {
		if strings.Contains(s, "trending upward") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an upward-trend insight, got %v", insights)
	}
}

func TestGenerateInsightsDownwardTrend(t *testing.T) {
	labels := emotion.NewLabelSet(nil)

	samples := make([]emotion.Sample, 0, 20)
	for i := 0; i < 10; i++ {
		samples = append(samples, sampleAt(int64(i), 0.9))
	}
	for i := 10; i < 20; i++ {
		samples = append(samples, sampleAt(int64(i), 0.2))
	}

	insights := GenerateInsights(samples, labels, "joy")
	found := false
	for _, s := range insights {
		if strings.Contains(s, "trending downward") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a downward-trend insight, got %v", insights)
	}
}

func TestGenerateInsightsVolatilityWarning(t *testing.T) {
	labels := emotion.NewLabelSet(nil)

	// Alternate extremes so the variance clears the threshold while the
	// half-window means stay close.
	samples := make([]emotion.Sample, 0, 20)
	for i := 0; i < 20; i++ {
		v := 0.05
		if i%2 == 0 {
			v = 0.95
		}
		samples = append(samples, sampleAt(int64(i), v))
	}

	insights := GenerateInsights(samples, labels, "joy")
	found := false
	for _, s := range insights {
		if strings.Contains(s, "highly variable") {
			found = true
		}
		if strings.Contains(s, "trending") {
			t.Fatalf("flat alternating window must not trend: %v", insights)
		}
	}
	if !found {
		t.Fatalf("expected a volatility warning, got %v", insights)
	}
}

func TestGenerateInsightsReportsFrequentDominant(t *testing.T) {
	labels := emotion.NewLabelSet(nil)

	samples := make([]emotion.Sample, 0, 12)
	for i := 0; i < 12; i++ {
		s := emotion.Sample{
			Timestamp:  int64(i),
			Emotions:   map[string]float64{"joy": 0.2, "sadness": 0.6},
			Confidence: 0.9,
		}
		samples = append(samples, s)
	}

	insights := GenerateInsights(samples, labels, "joy")
	if len(insights) == 0 || !strings.Contains(insights[0], "sadness") {
		t.Fatalf("expected sadness as recent dominant, got %v", insights)
	}
}

func TestGenerateInsightsUsesOnlyNewestWindow(t *testing.T) {
	labels := emotion.NewLabelSet(nil)

	// 30 old sad samples followed by 20 joyful ones: only the newest 20
	// may influence the output.
	samples := make([]emotion.Sample, 0, 50)
	for i := 0; i < 30; i++ {
		samples = append(samples, emotion.Sample{
			Timestamp:  int64(i),
			Emotions:   map[string]float64{"sadness": 0.9},
			Confidence: 0.9,
		})
	}
	for i := 30; i < 50; i++ {
		samples = append(samples, sampleAt(int64(i), 0.9))
	}

	insights := GenerateInsights(samples, labels, "joy")
	if len(insights) == 0 || !strings.Contains(insights[0], "joy") {
		t.Fatalf("expected joy dominant from the newest window, got %v", insights)
	}
}
