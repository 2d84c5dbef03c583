package session

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/neurolens/agent/internal/model/perf"
	"github.com/neurolens/agent/internal/transport"
)

func TestExportEmptySessionWellFormed(t *testing.T) {
	c := newTestController()

	report := c.Export()

	if report.GeneratedAt.IsZero() {
		t.Fatal("missing generation timestamp")
	}
	if report.TotalSamples != 0 {
		t.Fatalf("expected zero samples, got %d", report.TotalSamples)
	}
	if report.DurationMinutes != 0 {
		t.Fatalf("expected zero duration, got %f", report.DurationMinutes)
	}
	if report.Statistics == nil || len(report.Statistics) != 5 {
		t.Fatalf("expected an entry per label, got %v", report.Statistics)
	}
	if report.Insights == nil {
		t.Fatal("insights must be present, not null")
	}
	if report.RecentHistory == nil || len(report.RecentHistory) != 0 {
		t.Fatalf("expected empty recent history, got %v", report.RecentHistory)
	}

	// The JSON document must carry every field even when empty.
	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal err: %v", err)
	}
	for _, field := range []string{"generatedAt", "totalSamples", "durationMinutes", "statistics", "insights", "performance", "recentHistory"} {
		if !strings.Contains(string(data), field) {
			t.Fatalf("field %q missing from document: %s", field, data)
		}
	}
}

func TestExportRecentHistoryNewestFirst(t *testing.T) {
	c := newTestController()

	for i := 0; i < 30; i++ {
		c.Ingest(transport.InboundSample{
			Emotions:   map[string]float64{"joy": 0.5},
			Confidence: floatPtr(0.9),
			Timestamp:  int64(i),
		})
	}

	report := c.Export()
	if report.TotalSamples != 30 {
		t.Fatalf("total = %d, want 30", report.TotalSamples)
	}
	if len(report.RecentHistory) != ExportRecentLimit {
		t.Fatalf("recent history len = %d, want %d", len(report.RecentHistory), ExportRecentLimit)
	}
	if report.RecentHistory[0].Timestamp != 29 {
		t.Fatalf("first entry should be newest, got ts=%d", report.RecentHistory[0].Timestamp)
	}
	if report.RecentHistory[len(report.RecentHistory)-1].Timestamp != 10 {
		t.Fatalf("last entry unexpected: ts=%d", report.RecentHistory[len(report.RecentHistory)-1].Timestamp)
	}
}

func TestExportDurationDerivesFromInterval(t *testing.T) {
	c := newTestController() // 2000 ms interval

	for i := 0; i < 30; i++ {
		c.Ingest(transport.InboundSample{
			Emotions:   map[string]float64{"joy": 0.5},
			Confidence: floatPtr(0.9),
			Timestamp:  int64(i),
		})
	}

	report := c.Export()
	want := 30.0 * 2.0 / 60.0
	if report.DurationMinutes < want-1e-9 || report.DurationMinutes > want+1e-9 {
		t.Fatalf("duration = %f, want %f", report.DurationMinutes, want)
	}
}

func TestExportIncludesPerformanceSnapshot(t *testing.T) {
	c := New(testConfig(), newFakeClient(), nil, perf.Static{FPS: 24, MemoryUsage: 12.5})

	report := c.Export()
	if report.Performance.FPS != 24 || report.Performance.MemoryUsage != 12.5 {
		t.Fatalf("unexpected performance snapshot: %+v", report.Performance)
	}
}

func TestRenderTextSectionsPresent(t *testing.T) {
	c := newTestController()
	text := c.Export().RenderText()

	for _, section := range []string{"Session Report", "Emotion Statistics", "Insights", "Performance", "Recent History"} {
		if !strings.Contains(text, section) {
			t.Fatalf("section %q missing:\n%s", section, text)
		}
	}
	if !strings.Contains(text, "(none)") {
		t.Fatalf("empty session should render placeholders:\n%s", text)
	}
}
