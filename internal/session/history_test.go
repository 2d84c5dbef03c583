package session

import (
	"testing"

	"github.com/neurolens/agent/internal/model/emotion"
)

func sampleAt(ts int64, joy float64) emotion.Sample {
	return emotion.Sample{
		Timestamp:  ts,
		Emotions:   map[string]float64{"joy": joy},
		Confidence: 0.9,
	}
}

func TestHistoryFIFOEviction(t *testing.T) {
	h := NewHistory(100)

	for i := 0; i < 150; i++ {
		h.Append(sampleAt(int64(i), 0.5))
		if h.Len() > 100 {
			t.Fatalf("capacity exceeded at insert %d: len=%d", i, h.Len())
		}
	}

	if h.Len() != 100 {
		t.Fatalf("expected full buffer, got %d", h.Len())
	}

	snapshot := h.Snapshot()
	// After 150 inserts with capacity 100 the head must be the 51st sample.
	if snapshot[0].Timestamp != 50 {
		t.Fatalf("expected oldest timestamp 50, got %d", snapshot[0].Timestamp)
	}
	if snapshot[99].Timestamp != 149 {
		t.Fatalf("expected newest timestamp 149, got %d", snapshot[99].Timestamp)
	}
}

func TestHistorySnapshotIsCopy(t *testing.T) {
	h := NewHistory(10)
	h.Append(sampleAt(1, 0.4))

	snap := h.Snapshot()
	snap[0].Timestamp = 999

	if h.Snapshot()[0].Timestamp != 1 {
		t.Fatal("snapshot mutation leaked into buffer")
	}
}

func TestHistoryRecent(t *testing.T) {
	h := NewHistory(10)
	for i := 0; i < 5; i++ {
		h.Append(sampleAt(int64(i), 0.1))
	}

	recent := h.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(recent))
	}
	if recent[0].Timestamp != 2 || recent[2].Timestamp != 4 {
		t.Fatalf("unexpected recent window: %v", recent)
	}

	if got := h.Recent(50); len(got) != 5 {
		t.Fatalf("expected clamped window of 5, got %d", len(got))
	}
	if got := h.Recent(0); got != nil {
		t.Fatalf("expected nil for zero window, got %v", got)
	}
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory(10)
	h.Append(sampleAt(1, 0.3))
	h.Clear()

	if h.Len() != 0 {
		t.Fatalf("expected empty buffer after clear, got %d", h.Len())
	}
}
