package session

import (
	"time"

	"github.com/neurolens/agent/internal/model/emotion"
)

// ChartWindow keeps a bounded per-label series for visualization, decoupled
// from the rolling history. Capacity derives from the configured capture
// interval instead of the fixed sample rate the original frontend assumed.
type ChartWindow struct {
	labels     emotion.LabelSet
	series     map[string][]float64
	timeKeys   []string
	capacity   int
	intervalMs int
}

// NewChartWindow sizes the window for timeRangeSeconds of samples at the
// given capture interval.
func NewChartWindow(labels emotion.LabelSet, timeRangeSeconds, intervalMs int) *ChartWindow {
	w := &ChartWindow{
		labels:     labels,
		series:     make(map[string][]float64, labels.Len()),
		intervalMs: intervalMs,
	}
	w.capacity = chartCapacity(timeRangeSeconds, intervalMs)
	return w
}

func chartCapacity(timeRangeSeconds, intervalMs int) int {
	if intervalMs <= 0 {
		intervalMs = 2000
	}
	capacity := timeRangeSeconds * 1000 / intervalMs
	if capacity < 1 {
		capacity = 1
	}
	return capacity
}

// Append records one accepted sample: each declared label gets its intensity
// appended and a single display-time key joins the shared sequence. All
// series truncate to the current capacity, dropping oldest entries.
func (w *ChartWindow) Append(sample emotion.Sample) {
	for _, label := range w.labels.Labels() {
		series := append(w.series[label], sample.Emotions[label])
		if len(series) > w.capacity {
			series = series[len(series)-w.capacity:]
		}
		w.series[label] = series
	}

	key := time.UnixMilli(sample.Timestamp).Format("15:04:05")
	w.timeKeys = append(w.timeKeys, key)
	if len(w.timeKeys) > w.capacity {
		w.timeKeys = w.timeKeys[len(w.timeKeys)-w.capacity:]
	}
}

// SetTimeRange recomputes the capacity for future appends only. Existing
// entries are neither trimmed nor backfilled.
func (w *ChartWindow) SetTimeRange(timeRangeSeconds int) {
	w.capacity = chartCapacity(timeRangeSeconds, w.intervalMs)
}

// Capacity returns the current window capacity.
func (w *ChartWindow) Capacity() int {
	return w.capacity
}

// Series returns a copy of one label's values, oldest first.
func (w *ChartWindow) Series(label string) []float64 {
	return append([]float64(nil), w.series[label]...)
}

// TimeKeys returns a copy of the shared display-time sequence.
func (w *ChartWindow) TimeKeys() []string {
	return append([]string(nil), w.timeKeys...)
}

// Clear drops all series data. Like History.Clear, only the explicit reset
// path calls this.
func (w *ChartWindow) Clear() {
	w.series = make(map[string][]float64, w.labels.Len())
	w.timeKeys = nil
}
