package engine

import (
	"testing"
	"time"
)

func TestTTLCacheExpiry(t *testing.T) {
	current := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	c := newTTLCache[int](5 * time.Minute)
	c.now = func() time.Time { return current }

	if _, ok := c.Get("a"); ok {
		t.Fatal("empty cache reported a hit")
	}

	c.Put("a", 7)
	if v, ok := c.Get("a"); !ok || v != 7 {
		t.Fatalf("Get = %d,%v, want 7,true", v, ok)
	}

	current = current.Add(4 * time.Minute)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry expired before its TTL")
	}

	current = current.Add(time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("entry served at its TTL boundary")
	}
}

func TestTTLCacheOverwrite(t *testing.T) {
	current := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	c := newTTLCache[string](time.Minute)
	c.now = func() time.Time { return current }

	c.Put("k", "old")
	current = current.Add(30 * time.Second)
	c.Put("k", "new")

	// The rewrite restarts the clock.
	current = current.Add(45 * time.Second)
	if v, ok := c.Get("k"); !ok || v != "new" {
		t.Fatalf("Get = %q,%v, want new,true", v, ok)
	}
}

func TestTTLCachePurge(t *testing.T) {
	current := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	c := newTTLCache[int](time.Minute)
	c.now = func() time.Time { return current }

	c.Put("old", 1)
	current = current.Add(2 * time.Minute)
	c.Put("fresh", 2)

	c.Purge()
	if len(c.entries) != 1 {
		t.Fatalf("entries = %d, want 1 after purge", len(c.entries))
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatal("purge dropped a fresh entry")
	}
}
