package session

import "github.com/neurolens/agent/internal/model/emotion"

// HistoryCapacity bounds the rolling sample buffer. 200 samples cover just
// under seven minutes at the default 2s capture interval.
const HistoryCapacity = 200

// History is a bounded FIFO of accepted samples. It is not safe for
// concurrent use on its own; the owning controller serializes all access.
type History struct {
	samples  []emotion.Sample
	capacity int
}

// NewHistory returns an empty buffer with the given capacity, falling back
// to HistoryCapacity for non-positive values.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = HistoryCapacity
	}
	return &History{
		samples:  make([]emotion.Sample, 0, capacity),
		capacity: capacity,
	}
}

// Append stores a sample, evicting the oldest entry when full.
func (h *History) Append(sample emotion.Sample) {
	if len(h.samples) == h.capacity {
		copy(h.samples, h.samples[1:])
		h.samples = h.samples[:h.capacity-1]
	}
	h.samples = append(h.samples, sample)
}

// Len returns the current number of buffered samples.
func (h *History) Len() int {
	return len(h.samples)
}

// Capacity returns the fixed buffer capacity.
func (h *History) Capacity() int {
	return h.capacity
}

// Snapshot returns a copy of the buffered samples, oldest first.
func (h *History) Snapshot() []emotion.Sample {
	out := make([]emotion.Sample, len(h.samples))
	copy(out, h.samples)
	return out
}

// Recent returns up to n of the newest samples, oldest first.
func (h *History) Recent(n int) []emotion.Sample {
	if n <= 0 || len(h.samples) == 0 {
		return nil
	}
	if n > len(h.samples) {
		n = len(h.samples)
	}
	out := make([]emotion.Sample, n)
	copy(out, h.samples[len(h.samples)-n:])
	return out
}

// Clear empties the buffer. Only the user-triggered reset path calls this;
// stopping a session never does.
func (h *History) Clear() {
	h.samples = h.samples[:0]
}
