package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/neurolens/agent/internal/model/emotion"
)

// Config aggregates every tunable of the agent.
type Config struct {
	Server    ServerConfig
	Analysis  AnalysisConfig
	Transport TransportConfig
}

// Load reads configuration from environment variables. Enumerated values
// outside their allowed set are clamped to the nearest valid value rather
// than rejected.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	analysis, err := loadAnalysisConfig()
	if err != nil {
		return nil, err
	}

	transport := loadTransportConfig()

	return &Config{Server: server, Analysis: analysis, Transport: transport}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8090"
	}

	if strings.Contains(port, ":") {
		// Allow ":8090" or "127.0.0.1:8090" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// Allowed enumerations for the analysis settings.
var (
	AllowedIntervalsMs   = []int{1000, 2000, 5000}
	AllowedTimeRangeSecs = []int{10, 20, 60}
)

// AnalysisConfig describes the per-session analytics settings.
type AnalysisConfig struct {
	IntervalMs          int
	ConfidenceThreshold float64
	TimeRangeSeconds    int
	ShowInsights        bool
	Labels              []string
	PrimaryLabel        string
}

func loadAnalysisConfig() (AnalysisConfig, error) {
	interval := 2000
	if v, err := parseOptionalIntEnv("ANALYSIS_INTERVAL_MS"); err != nil {
		return AnalysisConfig{}, err
	} else if v != nil {
		interval = ClampEnum(*v, AllowedIntervalsMs)
	}

	threshold := 0.7
	if v, err := parseOptionalFloatEnv("CONFIDENCE_THRESHOLD"); err != nil {
		return AnalysisConfig{}, err
	} else if v != nil {
		threshold = ClampUnit(*v)
	}

	timeRange := 20
	if v, err := parseOptionalIntEnv("TIME_RANGE_SECONDS"); err != nil {
		return AnalysisConfig{}, err
	} else if v != nil {
		timeRange = ClampEnum(*v, AllowedTimeRangeSecs)
	}

	showInsights, err := parseBoolEnv("SHOW_INSIGHTS", true)
	if err != nil {
		return AnalysisConfig{}, err
	}

	labels := emotion.DefaultLabels()
	if raw := strings.TrimSpace(os.Getenv("EMOTION_LABELS")); raw != "" {
		parsed := make([]string, 0, 8)
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				parsed = append(parsed, trimmed)
			}
		}
		if len(parsed) > 0 {
			labels = parsed
		}
	}

	primary := strings.TrimSpace(os.Getenv("PRIMARY_LABEL"))
	if primary == "" || !containsLabel(labels, primary) {
		primary = labels[0]
	}

	return AnalysisConfig{
		IntervalMs:          interval,
		ConfidenceThreshold: threshold,
		TimeRangeSeconds:    timeRange,
		ShowInsights:        showInsights,
		Labels:              labels,
		PrimaryLabel:        primary,
	}, nil
}

// TransportConfig describes the inference-service endpoint.
type TransportConfig struct {
	URL string
}

func loadTransportConfig() TransportConfig {
	return TransportConfig{
		URL: getEnvOrDefault("INFERENCE_URL", "ws://localhost:8000/ws"),
	}
}

// ClampEnum snaps value to the nearest member of allowed.
func ClampEnum(value int, allowed []int) int {
	best := allowed[0]
	bestDist := math.Abs(float64(value - best))
	for _, candidate := range allowed[1:] {
		if dist := math.Abs(float64(value - candidate)); dist < bestDist {
			best = candidate
			bestDist = dist
		}
	}
	return best
}

// ClampUnit bounds value to [0,1].
func ClampUnit(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
