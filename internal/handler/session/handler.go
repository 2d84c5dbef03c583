package session

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/neurolens/agent/internal/config"
	"github.com/neurolens/agent/internal/model/emotion"
	sessionsvc "github.com/neurolens/agent/internal/session"
	"github.com/neurolens/agent/pkg/utils"
)

// Factory assembles a ready-to-start controller for the given settings.
type Factory func(cfg config.AnalysisConfig) (*sessionsvc.Controller, error)

// Handler exposes the session lifecycle and analytics over HTTP.
type Handler struct {
	registry *sessionsvc.Registry
	base     config.AnalysisConfig
	factory  Factory
}

// New creates a session handler. base supplies the per-session defaults that
// create-time overrides are applied on top of.
func New(registry *sessionsvc.Registry, base config.AnalysisConfig, factory Factory) *Handler {
	return &Handler{registry: registry, base: base, factory: factory}
}

// RegisterRoutes mounts the session endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.create)
	r.Get("/sessions", h.list)
	r.Post("/sessions/cleanup", h.cleanup)
	r.Get("/analytics/summary", h.analyticsSummary)

	r.Route("/sessions/{sessionID}", func(sr chi.Router) {
		sr.Get("/", h.detail)
		sr.Delete("/", h.remove)
		sr.Post("/reset", h.reset)
		sr.Put("/config", h.updateConfig)
		sr.Get("/export", h.export)
		sr.Get("/timeline", h.timeline)
		sr.Get("/stream", h.stream)
	})
}

// Summary is the list-view projection of a session.
type Summary struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"createdAt"`
	SampleCount     int       `json:"sampleCount"`
	DurationMinutes float64   `json:"durationMinutes"`
}

func summarize(c *sessionsvc.Controller) Summary {
	return Summary{
		ID:              c.ID(),
		CreatedAt:       c.CreatedAt(),
		SampleCount:     c.TotalAccepted(),
		DurationMinutes: time.Since(c.CreatedAt()).Minutes(),
	}
}

// createRequest carries optional per-session overrides of the daemon
// defaults. Enumerated values clamp, matching the env-config behavior.
type createRequest struct {
	AnalysisIntervalMs  *int     `json:"analysisIntervalMs"`
	ConfidenceThreshold *float64 `json:"confidenceThreshold"`
	TimeRangeSeconds    *int     `json:"timeRangeSeconds"`
	ShowInsights        *bool    `json:"showInsights"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid session payload")
		return
	}

	cfg := h.base
	if req.AnalysisIntervalMs != nil {
		cfg.IntervalMs = config.ClampEnum(*req.AnalysisIntervalMs, config.AllowedIntervalsMs)
	}
	if req.ConfidenceThreshold != nil {
		cfg.ConfidenceThreshold = config.ClampUnit(*req.ConfidenceThreshold)
	}
	if req.TimeRangeSeconds != nil {
		cfg.TimeRangeSeconds = config.ClampEnum(*req.TimeRangeSeconds, config.AllowedTimeRangeSecs)
	}
	if req.ShowInsights != nil {
		cfg.ShowInsights = *req.ShowInsights
	}

	controller, err := h.factory(cfg)
	if err != nil {
		log.Printf("[handler] session factory failed: %v", err)
		utils.RespondError(w, http.StatusServiceUnavailable, "failed to create session")
		return
	}

	if err := controller.Start(r.Context()); err != nil {
		log.Printf("[handler] session start failed: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "failed to reach analysis service")
		return
	}

	h.registry.Add(controller)
	utils.RespondJSON(w, http.StatusCreated, summarize(controller))
}

func (h *Handler) list(w http.ResponseWriter, _ *http.Request) {
	sessions := h.registry.List()

	summaries := make([]Summary, 0, len(sessions))
	for _, c := range sessions {
		summaries = append(summaries, summarize(c))
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"totalSessions": len(summaries),
		"sessions":      summaries,
	})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*sessionsvc.Controller, bool) {
	id := chi.URLParam(r, "sessionID")
	controller, err := h.registry.Get(id)
	if err != nil {
		if errors.Is(err, sessionsvc.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
		} else {
			utils.RespondError(w, http.StatusInternalServerError, "session lookup failed")
		}
		return nil, false
	}
	return controller, true
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.lookup(w, r)
	if !ok {
		return
	}

	labels := controller.Labels().Labels()
	series := make(map[string][]float64, len(labels))
	for _, label := range labels {
		series[label] = controller.ChartSeries(label)
	}

	peaks := controller.Peaks()

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"id":            controller.ID(),
		"createdAt":     controller.CreatedAt(),
		"sampleCount":   controller.TotalAccepted(),
		"historyLength": controller.HistoryLen(),
		"dominant":      controller.Dominant(),
		"analyzing":     controller.Analyzing(),
		"statistics":    controller.Stats(),
		"insights":      controller.Insights(),
		"chart": map[string]any{
			"timeKeys": controller.ChartTimeKeys(),
			"series":   series,
		},
		"analytics": map[string]any{
			"peaks":      peaks,
			"totalPeaks": len(peaks),
		},
	})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := h.registry.Remove(id); err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "session deleted"})
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.lookup(w, r)
	if !ok {
		return
	}

	controller.Reset()
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "session reset"})
}

type configUpdate struct {
	TimeRangeSeconds *int `json:"timeRangeSeconds"`
}

func (h *Handler) updateConfig(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var update configUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid config payload")
		return
	}

	response := map[string]any{}
	if update.TimeRangeSeconds != nil {
		applied := controller.SetTimeRange(*update.TimeRangeSeconds)
		response["timeRangeSeconds"] = applied
	}

	utils.RespondJSON(w, http.StatusOK, response)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.lookup(w, r)
	if !ok {
		return
	}

	report := controller.Export()

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(report.RenderText())); err != nil {
			log.Printf("[handler] export write failed: %v", err)
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, report)
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.lookup(w, r)
	if !ok {
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"timeline": controller.Timeline(),
	})
}

func (h *Handler) cleanup(w http.ResponseWriter, _ *http.Request) {
	removed := h.registry.CleanupStale()
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"message":           "cleanup completed",
		"sessionsRemoved":   removed,
		"remainingSessions": h.registry.Len(),
	})
}

func (h *Handler) analyticsSummary(w http.ResponseWriter, _ *http.Request) {
	sessions := h.registry.List()
	if len(sessions) == 0 {
		utils.RespondJSON(w, http.StatusOK, map[string]any{"message": "no active sessions"})
		return
	}

	totals := make(map[string]float64)
	counts := make(map[string]int)
	totalPoints := 0
	confidenceSum := 0.0

	for _, c := range sessions {
		for _, sample := range c.HistorySnapshot() {
			totalPoints++
			confidenceSum += sample.Confidence
			for label, value := range sample.Emotions {
				totals[label] += value
				counts[label]++
			}
		}
	}

	averages := make(map[string]float64, len(totals))
	for label, sum := range totals {
		averages[label] = sum / float64(counts[label])
	}

	avgConfidence := 0.0
	if totalPoints > 0 {
		avgConfidence = confidenceSum / float64(totalPoints)
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"totalSessions":     len(sessions),
		"totalDataPoints":   totalPoints,
		"averageConfidence": avgConfidence,
		"averageEmotions":   averages,
		"mostCommonEmotion": mostCommon(averages),
	})
}

// mostCommon picks the label with the highest cross-session average,
// breaking ties lexically so the answer is stable.
func mostCommon(averages map[string]float64) string {
	best := ""
	for label, value := range averages {
		if best == "" || value > averages[best] || (value == averages[best] && label < best) {
			best = label
		}
	}
	return best
}

// streamEvent is one SSE payload on the live stream.
type streamEvent struct {
	kind string
	data any
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.lookup(w, r)
	if !ok {
		return
	}

	flusher, flushable := w.(http.Flusher)
	if !flushable {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)

	events := make(chan streamEvent, 32)

	unsubscribeSamples := controller.Subscribe(func(sample emotion.Sample, dominant string) {
		select {
		case events <- streamEvent{kind: "sample", data: map[string]any{
			"timestamp":  sample.Timestamp,
			"emotions":   sample.Emotions,
			"confidence": sample.Confidence,
			"dominant":   dominant,
		}}:
		default:
			// Slow consumer; drop rather than stall the pipeline.
		}
	})
	defer unsubscribeSamples()

	unsubscribeNotifications := controller.Notifier().Subscribe(func(n sessionsvc.Notification, expired bool) {
		kind := "notification"
		if expired {
			kind = "notification_expired"
		}
		select {
		case events <- streamEvent{kind: kind, data: n}:
		default:
		}
	})
	defer unsubscribeNotifications()

	ctx := r.Context()
	log.Printf("[sse] opening live stream for session=%s", controller.ID())

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	utils.SendSSEEvent(w, flusher, "status", map[string]string{"message": "stream established"})

	for {
		select {
		case <-ctx.Done():
			log.Printf("[sse] closing live stream for session=%s", controller.ID())
			return
		case event := <-events:
			utils.SendSSEEvent(w, flusher, event.kind, event.data)
		case t := <-heartbeat.C:
			utils.SendSSEEvent(w, flusher, "heartbeat", map[string]string{
				"time": t.UTC().Format(time.RFC3339),
			})
		}
	}
}
