// Package embedding maps normalized entry text to fixed-length dense
// vectors.
package embedding

import "context"

// Provider generates embeddings from text. Implementations must be
// deterministic: the same text with the same model yields the same
// vector across runs.
type Provider interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for several texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}
