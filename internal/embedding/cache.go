package embedding

import (
	"context"

	"github.com/zotatlas/zotatlas/internal/storage"
)

// CachedProvider wraps a Provider with the SQLite vector cache. Cache
// hits never touch the inner provider, so repeated builds over an
// unchanged library embed nothing.
type CachedProvider struct {
	inner Provider
	cache *storage.VectorCache
}

// NewCachedProvider wraps p with cache.
func NewCachedProvider(p Provider, cache *storage.VectorCache) *CachedProvider {
	return &CachedProvider{inner: p, cache: cache}
}

// Embed implements Provider.
func (c *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := storage.Key(c.inner.ModelName(), text)
	if vec, err := c.cache.Get(key); err == nil && vec != nil {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(key, c.inner.ModelName(), vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedBatch implements Provider. Only cache misses are forwarded to
// the inner provider, in one batch.
func (c *CachedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		key := storage.Key(c.inner.ModelName(), text)
		if vec, err := c.cache.Get(key); err == nil && vec != nil {
			out[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		vecs, err := c.inner.EmbedBatch(ctx, missing)
		if err != nil {
			return nil, err
		}
		for j, vec := range vecs {
			i := missingIdx[j]
			out[i] = vec
			key := storage.Key(c.inner.ModelName(), texts[i])
			if err := c.cache.Put(key, c.inner.ModelName(), vec); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

// ModelName implements Provider.
func (c *CachedProvider) ModelName() string { return c.inner.ModelName() }

// Dimensions implements Provider.
func (c *CachedProvider) Dimensions() int { return c.inner.Dimensions() }
