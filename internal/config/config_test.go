package config

import "testing"

func TestClampEnumSnapsToNearest(t *testing.T) {
	cases := []struct {
		value int
		want  int
	}{
		{1000, 1000},
		{900, 1000},
		{1700, 2000},
		{4000, 5000},
		{9999, 5000},
		{-50, 1000},
	}

	for _, tc := range cases {
		if got := ClampEnum(tc.value, AllowedIntervalsMs); got != tc.want {
			t.Fatalf("ClampEnum(%d) = %d, want %d", tc.value, got, tc.want)
		}
	}
}

func TestClampUnit(t *testing.T) {
	if got := ClampUnit(-0.2); got != 0 {
		t.Fatalf("expected 0, got %f", got)
	}
	if got := ClampUnit(1.7); got != 1 {
		t.Fatalf("expected 1, got %f", got)
	}
	if got := ClampUnit(0.7); got != 0.7 {
		t.Fatalf("expected 0.7, got %f", got)
	}
}

func TestLoadAnalysisDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Analysis.IntervalMs != 2000 {
		t.Fatalf("unexpected default interval: %d", cfg.Analysis.IntervalMs)
	}
	if cfg.Analysis.ConfidenceThreshold != 0.7 {
		t.Fatalf("unexpected default threshold: %f", cfg.Analysis.ConfidenceThreshold)
	}
	if cfg.Analysis.TimeRangeSeconds != 20 {
		t.Fatalf("unexpected default time range: %d", cfg.Analysis.TimeRangeSeconds)
	}
	if len(cfg.Analysis.Labels) != 5 {
		t.Fatalf("unexpected default labels: %v", cfg.Analysis.Labels)
	}
	if cfg.Analysis.PrimaryLabel != "joy" {
		t.Fatalf("unexpected primary label: %s", cfg.Analysis.PrimaryLabel)
	}
}

func TestLoadClampsOutOfRangeValues(t *testing.T) {
	t.Setenv("ANALYSIS_INTERVAL_MS", "1700")
	t.Setenv("CONFIDENCE_THRESHOLD", "1.5")
	t.Setenv("TIME_RANGE_SECONDS", "45")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Analysis.IntervalMs != 2000 {
		t.Fatalf("interval not clamped: %d", cfg.Analysis.IntervalMs)
	}
	if cfg.Analysis.ConfidenceThreshold != 1 {
		t.Fatalf("threshold not clamped: %f", cfg.Analysis.ConfidenceThreshold)
	}
	if cfg.Analysis.TimeRangeSeconds != 60 {
		t.Fatalf("time range not clamped: %d", cfg.Analysis.TimeRangeSeconds)
	}
}

func TestLoadCustomLabelsAndPrimary(t *testing.T) {
	t.Setenv("EMOTION_LABELS", "calm, focus ,joy")
	t.Setenv("PRIMARY_LABEL", "focus")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if len(cfg.Analysis.Labels) != 3 || cfg.Analysis.Labels[1] != "focus" {
		t.Fatalf("unexpected labels: %v", cfg.Analysis.Labels)
	}
	if cfg.Analysis.PrimaryLabel != "focus" {
		t.Fatalf("unexpected primary: %s", cfg.Analysis.PrimaryLabel)
	}
}

func TestLoadPrimaryFallsBackToFirstLabel(t *testing.T) {
	t.Setenv("EMOTION_LABELS", "calm,focus")
	t.Setenv("PRIMARY_LABEL", "joy")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Analysis.PrimaryLabel != "calm" {
		t.Fatalf("expected fallback to first label, got %s", cfg.Analysis.PrimaryLabel)
	}
}
