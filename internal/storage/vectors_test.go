package storage

import (
	"path/filepath"
	"testing"
)

func openTestCache(t *testing.T) *VectorCache {
	t.Helper()
	cache, err := OpenVectorCache(filepath.Join(t.TempDir(), "vectors.db"))
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestKey(t *testing.T) {
	a := Key("model-a", "some text")
	if a != Key("model-a", "some text") {
		t.Error("key is not stable")
	}
	if a == Key("model-b", "some text") {
		t.Error("key must depend on the model")
	}
	if a == Key("model-a", "other text") {
		t.Error("key must depend on the text")
	}
	// A separator keeps model/text boundaries from colliding
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("model/text boundary collision")
	}
}

func TestVectorCacheRoundTrip(t *testing.T) {
	cache := openTestCache(t)

	key := Key("model", "text")
	vec := []float32{1.5, -2.25, 0, 3.0e-7}
	if err := cache.Put(key, "model", vec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := cache.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != len(vec) {
		t.Fatalf("got %d dims, want %d", len(got), len(vec))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("dim %d = %g, want %g", i, got[i], vec[i])
		}
	}
}

func TestVectorCacheMiss(t *testing.T) {
	cache := openTestCache(t)

	got, err := cache.Get(Key("model", "never stored"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("miss returned %v, want nil", got)
	}
}

func TestVectorCachePutReplaces(t *testing.T) {
	cache := openTestCache(t)

	key := Key("model", "text")
	if err := cache.Put(key, "model", []float32{1}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := cache.Put(key, "model", []float32{2, 3}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := cache.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("got %v, want [2 3]", got)
	}

	n, err := cache.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestVectorCacheClear(t *testing.T) {
	cache := openTestCache(t)

	if err := cache.Put(Key("old", "a"), "old", []float32{1}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := cache.Put(Key("new", "a"), "new", []float32{2}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := cache.Clear("new"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if got, _ := cache.Get(Key("old", "a")); got != nil {
		t.Error("stale model vector survived Clear")
	}
	if got, _ := cache.Get(Key("new", "a")); got == nil {
		t.Error("kept model vector was dropped")
	}

	if err := cache.Clear(""); err != nil {
		t.Fatalf("Clear all: %v", err)
	}
	n, err := cache.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("Count after full clear = %d, want 0", n)
	}
}
