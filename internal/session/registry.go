package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrSessionNotFound reports a lookup for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// StaleAfter is how long an idle session survives before cleanup removes it.
const StaleAfter = time.Hour

// Registry tracks the live sessions of this process.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Controller
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Controller)}
}

// Add registers a controller under its own id.
func (r *Registry) Add(c *Controller) {
	r.mu.Lock()
	r.sessions[c.ID()] = c
	r.mu.Unlock()
}

// Get looks a session up by id.
func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return c, nil
}

// List returns all registered sessions.
func (r *Registry) List() []*Controller {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Controller, 0, len(r.sessions))
	for _, c := range r.sessions {
		out = append(out, c)
	}
	return out
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Remove stops and unregisters a session.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	c, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	c.Stop()
	return nil
}

// CleanupStale stops and removes sessions older than StaleAfter, returning
// how many were removed.
func (r *Registry) CleanupStale() int {
	cutoff := time.Now().Add(-StaleAfter)

	r.mu.Lock()
	var stale []*Controller
	for id, c := range r.sessions {
		if c.CreatedAt().Before(cutoff) {
			stale = append(stale, c)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, c := range stale {
		c.Stop()
		log.Printf("[registry] cleaned up stale session %s", c.ID())
	}
	return len(stale)
}

// RunCleanup sweeps stale sessions on the given interval until ctx ends.
func (r *Registry) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.CleanupStale()
		}
	}
}

// CloseAll stops every session, for process shutdown.
func (r *Registry) CloseAll() {
	for _, c := range r.List() {
		c.Stop()
	}
}
