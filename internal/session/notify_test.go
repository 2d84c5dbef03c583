package session

import (
	"strings"
	"sync"
	"testing"

	"github.com/neurolens/agent/internal/model/emotion"
)

func TestCheckSampleEmitsAboveThreshold(t *testing.T) {
	labels := emotion.NewLabelSet(nil)
	notifier := NewNotifier()

	sample := emotion.Sample{
		Timestamp:  1,
		Emotions:   map[string]float64{"joy": 0.9, "sadness": 0.1, "neutral": 0.3},
		Confidence: 0.95,
	}

	notification, ok := notifier.CheckSample(sample, labels)
	if !ok {
		t.Fatal("expected a notification for 0.9 dominant intensity")
	}
	if !strings.Contains(notification.Message, "joy") {
		t.Fatalf("message missing label: %q", notification.Message)
	}
	if !strings.Contains(notification.Message, "90%") {
		t.Fatalf("message missing rounded percentage: %q", notification.Message)
	}
	if notification.ID == "" {
		t.Fatal("expected a notification id")
	}
	if len(notifier.Active()) != 1 {
		t.Fatalf("expected one active notification, got %d", len(notifier.Active()))
	}
}

func TestCheckSampleQuietAtOrBelowThreshold(t *testing.T) {
	labels := emotion.NewLabelSet(nil)
	notifier := NewNotifier()

	sample := emotion.Sample{
		Timestamp:  1,
		Emotions:   map[string]float64{"joy": 0.8},
		Confidence: 0.95,
	}

	if _, ok := notifier.CheckSample(sample, labels); ok {
		t.Fatal("0.8 must not exceed the 0.8 threshold")
	}
	if _, ok := notifier.CheckSample(emotion.Sample{}, labels); ok {
		t.Fatal("empty sample must not notify")
	}
}

func TestNotifierExpiryReachesListeners(t *testing.T) {
	notifier := NewNotifier()
	notifier.ttl = 0 // fire expiry immediately

	var mu sync.Mutex
	expired := make(chan Notification, 1)
	notifier.Subscribe(func(n Notification, isExpiry bool) {
		mu.Lock()
		defer mu.Unlock()
		if isExpiry {
			expired <- n
		}
	})

	published := notifier.Publish("test alert", "info")

	got := <-expired
	if got.ID != published.ID {
		t.Fatalf("expired id %s does not match published %s", got.ID, published.ID)
	}
	if len(notifier.Active()) != 0 {
		t.Fatalf("expected no active notifications after expiry, got %d", len(notifier.Active()))
	}
}
