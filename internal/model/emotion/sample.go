package emotion

import "sort"

// Sample is one classification result received from the inference service.
// Intensities are in [0,1] and need not sum to 1. A sample is immutable once
// accepted into a session.
type Sample struct {
	Timestamp  int64              `json:"timestamp"`
	Emotions   map[string]float64 `json:"emotions"`
	Confidence float64            `json:"confidence"`
}

// LabelSet is the ordered emotion vocabulary fixed at session configuration
// time. The order doubles as the canonical tie-break ordering for dominant
// selection, so it must never depend on map iteration.
type LabelSet struct {
	labels []string
	rank   map[string]int
}

// DefaultLabels mirrors the label set the inference backend emits.
func DefaultLabels() []string {
	return []string{"joy", "surprise", "anger", "sadness", "neutral"}
}

// NewLabelSet builds a label set preserving the supplied order and dropping
// duplicates. An empty input falls back to DefaultLabels.
func NewLabelSet(labels []string) LabelSet {
	if len(labels) == 0 {
		labels = DefaultLabels()
	}

	set := LabelSet{rank: make(map[string]int, len(labels))}
	for _, label := range labels {
		if label == "" {
			continue
		}
		if _, ok := set.rank[label]; ok {
			continue
		}
		set.rank[label] = len(set.labels)
		set.labels = append(set.labels, label)
	}
	return set
}

// Labels returns the declared labels in canonical order.
func (s LabelSet) Labels() []string {
	return append([]string(nil), s.labels...)
}

// Len returns the number of declared labels.
func (s LabelSet) Len() int {
	return len(s.labels)
}

// Contains reports whether the label belongs to the declared set.
func (s LabelSet) Contains(label string) bool {
	_, ok := s.rank[label]
	return ok
}

// Dominant returns the label with the highest intensity in the sample.
// Ties break by declared order; labels outside the declared set sort after
// it in lexical order so the result is deterministic for any input map.
func (s LabelSet) Dominant(sample Sample) string {
	if len(sample.Emotions) == 0 {
		return ""
	}

	candidates := make([]string, 0, len(sample.Emotions))
	for label := range sample.Emotions {
		candidates = append(candidates, label)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return s.before(candidates[i], candidates[j])
	})

	best := candidates[0]
	for _, label := range candidates[1:] {
		if sample.Emotions[label] > sample.Emotions[best] {
			best = label
		}
	}
	return best
}

// before orders labels by declared rank, with undeclared labels after all
// declared ones in lexical order.
func (s LabelSet) before(a, b string) bool {
	ra, oka := s.rank[a]
	rb, okb := s.rank[b]
	switch {
	case oka && okb:
		return ra < rb
	case oka:
		return true
	case okb:
		return false
	default:
		return a < b
	}
}
