package session

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/neurolens/agent/internal/model/perf"
)

// ExportRecentLimit bounds the recent-history listing in a report.
const ExportRecentLimit = 20

// ReportEntry is one row of the recent-history listing.
type ReportEntry struct {
	Timestamp  int64   `json:"timestamp"`
	Dominant   string  `json:"dominant"`
	Confidence float64 `json:"confidence"`
}

// Report is the exportable session document. Every field is present even
// for an empty session.
type Report struct {
	GeneratedAt     time.Time             `json:"generatedAt"`
	TotalSamples    int                   `json:"totalSamples"`
	DurationMinutes float64               `json:"durationMinutes"`
	Statistics      map[string]LabelStats `json:"statistics"`
	Insights        []string              `json:"insights"`
	Performance     perf.Snapshot         `json:"performance"`
	RecentHistory   []ReportEntry         `json:"recentHistory"`
}

// Export assembles the session report. The recent-history listing is
// newest-first; duration derives from the accepted sample count and the
// configured capture interval.
func (c *Controller) Export() Report {
	c.mu.Lock()
	total := c.totalAccepted
	stats := make(map[string]LabelStats, len(c.stats))
	for label, entry := range c.stats {
		stats[label] = entry
	}
	insights := append([]string(nil), c.insights...)
	recent := c.history.Recent(ExportRecentLimit)
	c.mu.Unlock()

	if insights == nil {
		insights = []string{}
	}

	entries := make([]ReportEntry, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		sample := recent[i]
		entries = append(entries, ReportEntry{
			Timestamp:  sample.Timestamp,
			Dominant:   c.labels.Dominant(sample),
			Confidence: sample.Confidence,
		})
	}

	var snapshot perf.Snapshot
	if c.perf != nil {
		snapshot = c.perf.Snapshot()
	}

	intervalSeconds := float64(c.cfg.IntervalMs) / 1000

	return Report{
		GeneratedAt:     time.Now().UTC(),
		TotalSamples:    total,
		DurationMinutes: float64(total) * intervalSeconds / 60,
		Statistics:      stats,
		Insights:        insights,
		Performance:     snapshot,
		RecentHistory:   entries,
	}
}

// RenderText renders the report as a plain-text document with named
// sections, suitable for download.
func (r Report) RenderText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "NeuroLens Session Report\n")
	fmt.Fprintf(&b, "Generated: %s\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Total samples: %d\n", r.TotalSamples)
	fmt.Fprintf(&b, "Session duration: %.1f minutes\n", r.DurationMinutes)

	b.WriteString("\n== Emotion Statistics ==\n")
	if len(r.Statistics) == 0 {
		b.WriteString("(none)\n")
	} else {
		labels := make([]string, 0, len(r.Statistics))
		for label := range r.Statistics {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			entry := r.Statistics[label]
			fmt.Fprintf(&b, "%s: avg=%.3f max=%.3f trend=%+.3f\n", label, entry.Average, entry.Maximum, entry.Trend)
		}
	}

	b.WriteString("\n== Insights ==\n")
	if len(r.Insights) == 0 {
		b.WriteString("(none)\n")
	} else {
		for _, insight := range r.Insights {
			fmt.Fprintf(&b, "- %s\n", insight)
		}
	}

	b.WriteString("\n== Performance ==\n")
	fmt.Fprintf(&b, "fps=%.1f latency=%.1f accuracy=%.2f memory=%.1fMB processing=%.1fms confidence=%.2f\n",
		r.Performance.FPS, r.Performance.Latency, r.Performance.Accuracy,
		r.Performance.MemoryUsage, r.Performance.ProcessingTime, r.Performance.Confidence)

	b.WriteString("\n== Recent History (newest first) ==\n")
	if len(r.RecentHistory) == 0 {
		b.WriteString("(none)\n")
	} else {
		for _, entry := range r.RecentHistory {
			fmt.Fprintf(&b, "%s %s (confidence %.2f)\n",
				time.UnixMilli(entry.Timestamp).UTC().Format("15:04:05"), entry.Dominant, entry.Confidence)
		}
	}

	return b.String()
}
