package session

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neurolens/agent/internal/model/emotion"
)

// Notification tunables.
const (
	// NotifyIntensityThreshold gates dominant-emotion alerts.
	NotifyIntensityThreshold = 0.8
	// NotifyTTL is how long a notification stays active.
	NotifyTTL = 3000 * time.Millisecond
)

// Notification is a transient alert handed to a display collaborator. The
// core produces it and expires it; it never renders anything.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationListener observes publishes and expiries.
type NotificationListener func(n Notification, expired bool)

// Notifier tracks active notifications and schedules their expiry. Expiry
// timers run to completion even after the owning session stops.
type Notifier struct {
	mu         sync.Mutex
	active     map[string]Notification
	listeners  map[int]NotificationListener
	nextListen int
	ttl        time.Duration
}

// NewNotifier returns a notifier with the default TTL.
func NewNotifier() *Notifier {
	return &Notifier{
		active:    make(map[string]Notification),
		listeners: make(map[int]NotificationListener),
		ttl:       NotifyTTL,
	}
}

// Subscribe registers a listener for publish and expiry events and returns
// a function that removes it.
func (n *Notifier) Subscribe(listener NotificationListener) func() {
	n.mu.Lock()
	id := n.nextListen
	n.nextListen++
	n.listeners[id] = listener
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.listeners, id)
		n.mu.Unlock()
	}
}

// Publish records a notification and schedules its removal after the TTL,
// independent of any further events.
func (n *Notifier) Publish(message, kind string) Notification {
	notification := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Type:      kind,
		CreatedAt: time.Now(),
	}

	n.mu.Lock()
	n.active[notification.ID] = notification
	listeners := n.copyListeners()
	n.mu.Unlock()

	for _, listener := range listeners {
		listener(notification, false)
	}

	time.AfterFunc(n.ttl, func() {
		n.expire(notification)
	})

	return notification
}

func (n *Notifier) expire(notification Notification) {
	n.mu.Lock()
	_, ok := n.active[notification.ID]
	if ok {
		delete(n.active, notification.ID)
	}
	listeners := n.copyListeners()
	n.mu.Unlock()

	if !ok {
		return
	}
	for _, listener := range listeners {
		listener(notification, true)
	}
}

// copyListeners snapshots the listener set; callers hold the mutex.
func (n *Notifier) copyListeners() []NotificationListener {
	out := make([]NotificationListener, 0, len(n.listeners))
	for _, listener := range n.listeners {
		out = append(out, listener)
	}
	return out
}

// Active returns the currently live notifications.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Notification, 0, len(n.active))
	for _, notification := range n.active {
		out = append(out, notification)
	}
	return out
}

// CheckSample publishes a dominant-emotion alert when the sample's dominant
// intensity exceeds the threshold. Returns the notification and whether one
// was emitted.
func (n *Notifier) CheckSample(sample emotion.Sample, labels emotion.LabelSet) (Notification, bool) {
	dominant := labels.Dominant(sample)
	if dominant == "" {
		return Notification{}, false
	}

	intensity := sample.Emotions[dominant]
	if intensity <= NotifyIntensityThreshold {
		return Notification{}, false
	}

	message := fmt.Sprintf("Strong %s detected (%d%%)", dominant, int(math.Round(intensity*100)))
	return n.Publish(message, "info"), true
}
