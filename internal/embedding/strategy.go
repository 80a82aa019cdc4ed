package embedding

import (
	"context"
	"fmt"

	"github.com/viterin/vek/vek32"

	"github.com/zotatlas/zotatlas/internal/textnorm"
)

// Section weights for the weighted strategy. Missing sections drop
// their weight and the remainder renormalizes to sum to 1.
const (
	TitleWeight    = 0.3
	AbstractWeight = 0.4
	NotesWeight    = 0.3
)

// Strategy names accepted on the command line.
const (
	StrategyFlat     = "flat"
	StrategyWeighted = "weighted"
)

// Strategy turns an entry's normalized sections into one vector.
type Strategy interface {
	// Name identifies the strategy for run metadata.
	Name() string

	// EmbedEntry embeds one entry's sections.
	EmbedEntry(ctx context.Context, p Provider, s textnorm.Sections) ([]float32, error)
}

// NewStrategy resolves a strategy by name.
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case StrategyFlat:
		return Flat{}, nil
	case StrategyWeighted, "":
		return Weighted{}, nil
	default:
		return nil, fmt.Errorf("unknown embedding strategy %q", name)
	}
}

// Flat embeds the single concatenated text block per entry.
type Flat struct{}

// Name implements Strategy.
func (Flat) Name() string { return StrategyFlat }

// EmbedEntry implements Strategy.
func (Flat) EmbedEntry(ctx context.Context, p Provider, s textnorm.Sections) ([]float32, error) {
	return p.Embed(ctx, s.Concat())
}

// Weighted independently embeds title, abstract and notes, chunking
// long sections and averaging chunk vectors, then combines the section
// vectors with fixed relative weights. Entries with no usable section
// fall back to the title (or the placeholder) alone.
type Weighted struct{}

// Name implements Strategy.
func (Weighted) Name() string { return StrategyWeighted }

// EmbedEntry implements Strategy.
func (Weighted) EmbedEntry(ctx context.Context, p Provider, s textnorm.Sections) ([]float32, error) {
	type section struct {
		text   string
		weight float32
	}
	sections := []section{
		{s.Title, TitleWeight},
		{s.Abstract, AbstractWeight},
		{s.Notes, NotesWeight},
	}

	var sum []float32
	var weightTotal float32

	for _, sec := range sections {
		if sec.text == "" {
			continue
		}
		vec, err := embedChunked(ctx, p, sec.text)
		if err != nil {
			return nil, err
		}
		weighted := vek32.MulNumber(vec, sec.weight)
		if sum == nil {
			sum = weighted
		} else {
			sum = vek32.Add(sum, weighted)
		}
		weightTotal += sec.weight
	}

	if sum == nil {
		return p.Embed(ctx, s.Fallback())
	}

	// Renormalize over the sections actually present
	return vek32.MulNumber(sum, 1/weightTotal), nil
}

// embedChunked splits text over the chunk budget, embeds each chunk and
// returns the unweighted arithmetic mean of the chunk vectors.
func embedChunked(ctx context.Context, p Provider, text string) ([]float32, error) {
	chunks := textnorm.Chunk(text, textnorm.ChunkBudget)
	if len(chunks) == 1 {
		return p.Embed(ctx, chunks[0])
	}

	vecs, err := p.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, err
	}

	mean := vecs[0]
	for _, v := range vecs[1:] {
		mean = vek32.Add(mean, v)
	}
	return vek32.MulNumber(mean, 1/float32(len(vecs))), nil
}
