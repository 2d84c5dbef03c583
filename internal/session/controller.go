package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neurolens/agent/internal/capture"
	"github.com/neurolens/agent/internal/config"
	"github.com/neurolens/agent/internal/model/emotion"
	"github.com/neurolens/agent/internal/model/perf"
	"github.com/neurolens/agent/internal/transport"
)

const (
	// DefaultConfidence substitutes for samples that omit confidence so
	// downstream statistics stay populated.
	DefaultConfidence = 0.9
	// InsightInterval is the insight generator's own cycle.
	InsightInterval = 30 * time.Second
)

// SampleListener observes each accepted sample together with its dominant
// label. The live SSE stream registers one.
type SampleListener func(sample emotion.Sample, dominant string)

// Controller owns one session end to end: its transport handle, capture
// source, rolling history, chart window, derived statistics, insights, and
// notifier. Independent sessions coexist because nothing here is shared
// process-wide. All mutation of history and chart flows through Ingest,
// whose critical section makes each accepted sample one atomic unit.
type Controller struct {
	id        string
	createdAt time.Time

	cfg    config.AnalysisConfig
	labels emotion.LabelSet

	client   transport.Client
	source   capture.Source
	perf     perf.Provider
	notifier *Notifier

	mu            sync.Mutex
	history       *History
	chart         *ChartWindow
	stats         Stats
	dominant      string
	insights      []string
	totalAccepted int
	analyzing     bool
	transportDown bool
	listeners     map[int]SampleListener
	nextListen    int

	cancel  context.CancelFunc
	started bool
}

// New assembles a stopped controller. Start launches its loops.
func New(cfg config.AnalysisConfig, client transport.Client, source capture.Source, provider perf.Provider) *Controller {
	labels := emotion.NewLabelSet(cfg.Labels)

	c := &Controller{
		id:        uuid.NewString(),
		createdAt: time.Now().UTC(),
		cfg:       cfg,
		labels:    labels,
		client:    client,
		source:    source,
		perf:      provider,
		notifier:  NewNotifier(),
		history:   NewHistory(HistoryCapacity),
		chart:     NewChartWindow(labels, cfg.TimeRangeSeconds, cfg.IntervalMs),
		listeners: make(map[int]SampleListener),
	}
	c.stats = ComputeStats(nil, labels)
	return c
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// CreatedAt returns the session start time.
func (c *Controller) CreatedAt() time.Time { return c.createdAt }

// Labels returns the session's declared label set.
func (c *Controller) Labels() emotion.LabelSet { return c.labels }

// Notifier exposes the notification surface for display collaborators.
func (c *Controller) Notifier() *Notifier { return c.notifier }

// Subscribe registers a listener for accepted samples and returns a
// function that removes it.
func (c *Controller) Subscribe(listener SampleListener) func() {
	c.mu.Lock()
	id := c.nextListen
	c.nextListen++
	c.listeners[id] = listener
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Start connects the transport and launches the receive pump, the frame
// scheduler, and the insight cycle. The supplied context bounds dialing
// only; the session keeps running until Stop.
func (c *Controller) Start(ctx context.Context) error {
	if c.started {
		return nil
	}

	if err := c.client.Connect(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.started = true

	go c.receivePump(runCtx)
	go c.runScheduler(runCtx)
	go c.runInsightCycle(runCtx)

	log.Printf("[session] started id=%s interval=%dms labels=%v", c.id, c.cfg.IntervalMs, c.labels.Labels())
	return nil
}

// Stop cancels the scheduler and insight timers and closes the transport.
// Pending notification expiries run to completion; history and chart keep
// their contents (clearing is a separate, explicit action).
func (c *Controller) Stop() {
	if !c.started {
		return
	}
	c.started = false
	c.cancel()
	if err := c.client.Close(); err != nil {
		log.Printf("[session] transport close: %v", err)
	}
	log.Printf("[session] stopped id=%s", c.id)
}

// receivePump feeds inbound samples into Ingest. A single goroutine, so
// samples are serialized by construction on top of the mutex.
func (c *Controller) receivePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-c.client.Samples():
			if !ok {
				return
			}
			c.Ingest(in)
		}
	}
}

// Ingest validates one inbound sample and, on acceptance, pushes it through
// the whole pipeline atomically: history insert, stats recompute, chart
// update, notification check. Rejection is silent. Returns acceptance.
func (c *Controller) Ingest(in transport.InboundSample) bool {
	confidence := DefaultConfidence
	if in.Confidence != nil {
		confidence = *in.Confidence
		if confidence < c.cfg.ConfidenceThreshold {
			return false
		}
	}

	emotions := make(map[string]float64, len(in.Emotions))
	for label, value := range in.Emotions {
		emotions[label] = value
	}

	timestamp := in.Timestamp
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}

	sample := emotion.Sample{
		Timestamp:  timestamp,
		Emotions:   emotions,
		Confidence: confidence,
	}

	c.mu.Lock()
	c.history.Append(sample)
	c.chart.Append(sample)
	c.stats = ComputeStats(c.history.Snapshot(), c.labels)
	c.dominant = c.labels.Dominant(sample)
	c.totalAccepted++
	c.notifier.CheckSample(sample, c.labels)
	listeners := make([]SampleListener, 0, len(c.listeners))
	for _, listener := range c.listeners {
		listeners = append(listeners, listener)
	}
	dominant := c.dominant
	c.mu.Unlock()

	for _, listener := range listeners {
		listener(sample, dominant)
	}
	return true
}

// runInsightCycle regenerates the insight list on its own period. The list
// produced each cycle fully replaces the previous one.
func (c *Controller) runInsightCycle(ctx context.Context) {
	ticker := time.NewTicker(InsightInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.generateInsights()
		}
	}
}

func (c *Controller) generateInsights() {
	if !c.cfg.ShowInsights {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.history.Len() < InsightMinSamples {
		return
	}
	c.insights = GenerateInsights(c.history.Snapshot(), c.labels, c.cfg.PrimaryLabel)
}

// Reset clears history, chart, statistics, insights, and counters. This is
// the only clearing path; stopping a session never clears.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history.Clear()
	c.chart.Clear()
	c.stats = ComputeStats(nil, c.labels)
	c.dominant = ""
	c.insights = nil
	c.totalAccepted = 0
}

// SetTimeRange reconfigures the chart window's time range. Out-of-range
// values clamp to the nearest allowed one; the change applies to future
// appends only.
func (c *Controller) SetTimeRange(seconds int) int {
	clamped := config.ClampEnum(seconds, config.AllowedTimeRangeSecs)

	c.mu.Lock()
	c.cfg.TimeRangeSeconds = clamped
	c.chart.SetTimeRange(clamped)
	c.mu.Unlock()

	return clamped
}

// Stats returns the current derived statistics.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(Stats, len(c.stats))
	for label, entry := range c.stats {
		out[label] = entry
	}
	return out
}

// Dominant returns the dominant label of the most recently accepted sample.
// Under variable transport latency this may lag the most recently captured
// frame; samples carry no request correlation.
func (c *Controller) Dominant() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dominant
}

// Insights returns the latest generated insight list.
func (c *Controller) Insights() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.insights...)
}

// HistoryLen returns the number of buffered samples.
func (c *Controller) HistoryLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Len()
}

// TotalAccepted returns the count of samples accepted since start or reset.
func (c *Controller) TotalAccepted() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalAccepted
}

// HistorySnapshot returns the buffered samples, oldest first.
func (c *Controller) HistorySnapshot() []emotion.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Snapshot()
}

// ChartSeries returns a copy of one label's chart values.
func (c *Controller) ChartSeries(label string) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chart.Series(label)
}

// ChartTimeKeys returns the shared chart time-key sequence.
func (c *Controller) ChartTimeKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chart.TimeKeys()
}

// Analyzing reports the cosmetic analyzing flag. It carries no scheduling
// semantics.
func (c *Controller) Analyzing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.analyzing
}

// TimelineEntry is one row of the chronological dominant-emotion timeline.
type TimelineEntry struct {
	Timestamp int64  `json:"timestamp"`
	Dominant  string `json:"dominant"`
}

// Timeline renders the buffered history as dominant labels in chronological
// ascending order, using the same selector as live samples.
func (c *Controller) Timeline() []TimelineEntry {
	samples := c.HistorySnapshot()

	timeline := make([]TimelineEntry, 0, len(samples))
	for _, sample := range samples {
		timeline = append(timeline, TimelineEntry{
			Timestamp: sample.Timestamp,
			Dominant:  c.labels.Dominant(sample),
		})
	}
	return timeline
}

// Peak marks a high-confidence sample and its dominant emotion.
type Peak struct {
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
	Timestamp  int64   `json:"timestamp"`
}

// Peaks lists buffered samples whose confidence exceeds 0.8, chronological
// ascending.
func (c *Controller) Peaks() []Peak {
	samples := c.HistorySnapshot()

	peaks := make([]Peak, 0)
	for _, sample := range samples {
		if sample.Confidence > 0.8 {
			peaks = append(peaks, Peak{
				Emotion:    c.labels.Dominant(sample),
				Confidence: sample.Confidence,
				Timestamp:  sample.Timestamp,
			})
		}
	}
	return peaks
}
