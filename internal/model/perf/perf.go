package perf

import (
	"runtime"
	"time"
)

// Snapshot captures the performance figures a frontend collaborator supplies
// alongside an export. All fields are best-effort; zero values are valid.
type Snapshot struct {
	FPS            float64 `json:"fps"`
	Latency        float64 `json:"latency"`
	Accuracy       float64 `json:"accuracy"`
	MemoryUsage    float64 `json:"memoryUsage"`
	ProcessingTime float64 `json:"processingTime"`
	Confidence     float64 `json:"confidence"`
}

// Provider supplies the current performance snapshot on demand.
type Provider interface {
	Snapshot() Snapshot
}

// RuntimeProvider derives a snapshot from process runtime statistics. It is
// the default provider wired by the daemon when no collaborator supplies one.
type RuntimeProvider struct {
	started time.Time
}

// NewRuntimeProvider returns a provider anchored at the current time.
func NewRuntimeProvider() *RuntimeProvider {
	return &RuntimeProvider{started: time.Now()}
}

// Snapshot reports process memory usage in MB; the remaining fields are
// owned by the rendering collaborator and stay zero here.
func (p *RuntimeProvider) Snapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return Snapshot{
		MemoryUsage: float64(mem.Alloc) / (1024 * 1024),
	}
}

// Static is a fixed-value provider, useful for tests and for frontends that
// push their own measurements.
type Static Snapshot

// Snapshot returns the fixed snapshot.
func (s Static) Snapshot() Snapshot {
	return Snapshot(s)
}
