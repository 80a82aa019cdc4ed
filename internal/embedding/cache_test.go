package embedding

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/zotatlas/zotatlas/internal/storage"
)

func newTestCache(t *testing.T) *storage.VectorCache {
	t.Helper()
	cache, err := storage.OpenVectorCache(filepath.Join(t.TempDir(), "vectors.db"))
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCachedProviderEmbed(t *testing.T) {
	inner := &stubProvider{deflt: []float32{1, 2}}
	c := NewCachedProvider(inner, newTestCache(t))

	vec, err := c.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if !approxEqual(vec, []float32{1, 2}) {
		t.Errorf("unexpected vector %v", vec)
	}
	if len(inner.calls) != 1 {
		t.Fatalf("expected 1 inner call, got %d", len(inner.calls))
	}

	// Second call hits the cache
	vec, err = c.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if !approxEqual(vec, []float32{1, 2}) {
		t.Errorf("cached vector = %v", vec)
	}
	if len(inner.calls) != 1 {
		t.Errorf("cache hit still reached the provider: %d calls", len(inner.calls))
	}
}

func TestCachedProviderBatchForwardsOnlyMisses(t *testing.T) {
	inner := &stubProvider{vectors: map[string][]float32{
		"a": {1, 0},
		"b": {0, 1},
		"c": {1, 1},
	}}
	c := NewCachedProvider(inner, newTestCache(t))

	if _, err := c.Embed(context.Background(), "b"); err != nil {
		t.Fatalf("priming cache: %v", err)
	}
	inner.calls = nil

	vecs, err := c.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vecs))
	}
	if !approxEqual(vecs[0], []float32{1, 0}) || !approxEqual(vecs[1], []float32{0, 1}) || !approxEqual(vecs[2], []float32{1, 1}) {
		t.Errorf("vectors out of order: %v", vecs)
	}
	if len(inner.calls) != 2 {
		t.Errorf("expected only the 2 misses to reach the provider, got %v", inner.calls)
	}
	for _, call := range inner.calls {
		if call == "b" {
			t.Error("cached text was re-embedded")
		}
	}
}

func TestCachedProviderSeparatesModels(t *testing.T) {
	cache := newTestCache(t)

	first := &stubProvider{deflt: []float32{1, 1}}
	if _, err := NewCachedProvider(first, cache).Embed(context.Background(), "text"); err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if got := storage.Key("stub", "text"); got == storage.Key("other", "text") {
		t.Fatal("keys for different models must differ")
	}
}
