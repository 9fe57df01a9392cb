package engine

import (
	"testing"
	"time"
)

func TestCachePutGet(t *testing.T) {
	cache := newTTLCache[string](time.Minute, 100)

	if _, ok := cache.get("missing"); ok {
		t.Error("expected miss on empty cache")
	}

	cache.put("k", "v")
	v, ok := cache.get("k")
	if !ok || v != "v" {
		t.Errorf("got (%q, %v), want (v, true)", v, ok)
	}
}

func TestCacheStrictExpiry(t *testing.T) {
	cache := newTTLCache[int](5*time.Minute, 100)
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	now := base
	cache.now = func() time.Time { return now }

	cache.put("k", 42)

	now = base.Add(5*time.Minute - time.Second)
	if _, ok := cache.get("k"); !ok {
		t.Error("expected hit just before expiry")
	}

	// A read at exactly TTL is already a miss.
	now = base.Add(5 * time.Minute)
	if _, ok := cache.get("k"); ok {
		t.Error("expected miss at exact expiry time")
	}
}

func TestCacheCapacityEviction(t *testing.T) {
	cache := newTTLCache[int](time.Minute, 2)
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	now := base
	cache.now = func() time.Time { return now }

	cache.put("a", 1)
	now = base.Add(time.Second)
	cache.put("b", 2)
	now = base.Add(2 * time.Second)
	cache.put("c", 3)

	if len(cache.entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(cache.entries))
	}
	// "a" expires earliest and is the one evicted.
	if _, ok := cache.entries["a"]; ok {
		t.Error("expected oldest entry evicted")
	}
	if _, ok := cache.get("c"); !ok {
		t.Error("expected newest entry retained")
	}
}

func TestCacheEvictsExpiredFirst(t *testing.T) {
	cache := newTTLCache[int](time.Minute, 2)
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	now := base
	cache.now = func() time.Time { return now }

	cache.put("old", 1)
	now = base.Add(2 * time.Minute) // "old" is expired
	cache.put("b", 2)
	cache.put("c", 3)

	if _, ok := cache.get("b"); !ok {
		t.Error("live entry evicted instead of expired one")
	}
	if _, ok := cache.get("c"); !ok {
		t.Error("live entry evicted instead of expired one")
	}
}

func TestCacheStats(t *testing.T) {
	cache := newTTLCache[int](time.Minute, 100)
	cache.put("k", 1)

	cache.get("k")
	cache.get("k")
	cache.get("missing")

	s := cache.stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("got hits=%d misses=%d, want 2/1", s.Hits, s.Misses)
	}
	if s.Entries != 1 {
		t.Errorf("got entries=%d, want 1", s.Entries)
	}
	if s.HitRate < 0.66 || s.HitRate > 0.67 {
		t.Errorf("got hit rate %v, want ~0.667", s.HitRate)
	}
}

func TestCacheDefaultCapacity(t *testing.T) {
	cache := newTTLCache[int](time.Minute, 0)
	if cache.maxEntries != 10000 {
		t.Errorf("got %d, want default 10000", cache.maxEntries)
	}
}

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"case and punctuation ignored", "Great video!!!", "great video", true},
		{"urls stripped", "check https://example.com/x great video", "check great video", true},
		{"mentions stripped", "@creator great video", "great video", true},
		{"digits stripped", "great video 2026", "great video", true},
		{"different words differ", "great video", "terrible video", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fingerprint(tt.a) == Fingerprint(tt.b)
			if got != tt.same {
				t.Errorf("Fingerprint(%q) vs Fingerprint(%q): same=%v, want %v", tt.a, tt.b, got, tt.same)
			}
		})
	}
}

func TestFingerprintTruncatesToTwelveTokens(t *testing.T) {
	long := "one two three four five six seven eight nine ten eleven twelve thirteen"
	trimmed := "one two three four five six seven eight nine ten eleven twelve"
	if Fingerprint(long) != Fingerprint(trimmed) {
		t.Error("expected tokens beyond the twelfth to be ignored")
	}
}
