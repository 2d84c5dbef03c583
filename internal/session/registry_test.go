package session

import (
	"testing"
	"time"
)

func TestRegistryAddGetRemove(t *testing.T) {
	r := NewRegistry()
	c := newTestController()

	r.Add(c)
	if r.Len() != 1 {
		t.Fatalf("len = %d, want 1", r.Len())
	}

	got, err := r.Get(c.ID())
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if got.ID() != c.ID() {
		t.Fatalf("unexpected session: %s", got.ID())
	}

	if err := r.Remove(c.ID()); err != nil {
		t.Fatalf("Remove err: %v", err)
	}
	if _, err := r.Get(c.ID()); err == nil {
		t.Fatal("expected error after removal")
	}
	if err := r.Remove(c.ID()); err == nil {
		t.Fatal("expected error removing twice")
	}
}

func TestRegistryCleanupStale(t *testing.T) {
	r := NewRegistry()

	fresh := newTestController()
	stale := newTestController()
	stale.createdAt = time.Now().Add(-2 * time.Hour)

	r.Add(fresh)
	r.Add(stale)

	if removed := r.CleanupStale(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := r.Get(stale.ID()); err == nil {
		t.Fatal("stale session should be gone")
	}
	if _, err := r.Get(fresh.ID()); err != nil {
		t.Fatal("fresh session should survive")
	}
}
