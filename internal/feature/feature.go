// Package feature fuses text embeddings with metadata scores into the
// single matrix that layout and clustering both consume, so the two
// stages agree on what "similar" means.
package feature

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Relative importance of the metadata columns (venue, type, age), and
// the scale of the whole metadata block against the embedding block.
// Metadata nudges similarity, it must not dominate it.
var metaWeights = [3]float64{1.5, 1.0, 0.5}

// MetaBlockScale scales the metadata block relative to the embeddings.
const MetaBlockScale = 0.3

// Meta holds the per-entry metadata scores entering the fused matrix.
type Meta struct {
	VenueQuality float64
	TypeScore    float64
	Age          float64
}

// Compose standardizes the embedding and metadata blocks column-wise
// (zero mean, unit variance over the current batch), applies the
// metadata weights and block scale, and concatenates them into one
// N×(D+3) matrix.
func Compose(embeddings [][]float32, meta []Meta) (*mat.Dense, error) {
	n := len(embeddings)
	if n == 0 {
		return nil, fmt.Errorf("no embeddings to compose")
	}
	if len(meta) != n {
		return nil, fmt.Errorf("embedding/metadata length mismatch: %d vs %d", n, len(meta))
	}
	d := len(embeddings[0])
	for i, e := range embeddings {
		if len(e) != d {
			return nil, fmt.Errorf("embedding %d has length %d, want %d", i, len(e), d)
		}
	}

	fused := mat.NewDense(n, d+3, nil)
	for i, e := range embeddings {
		for j, v := range e {
			fused.Set(i, j, float64(v))
		}
		fused.Set(i, d, meta[i].VenueQuality)
		fused.Set(i, d+1, meta[i].TypeScore)
		fused.Set(i, d+2, meta[i].Age)
	}

	// Standardize every column over the batch
	col := make([]float64, n)
	for j := 0; j < d+3; j++ {
		mat.Col(col, j, fused)
		mean, std := stat.MeanStdDev(col, nil)
		if !(std > 0) {
			// Constant column carries no signal; center it to zero
			std = 1
		}
		for i := 0; i < n; i++ {
			fused.Set(i, j, (fused.At(i, j)-mean)/std)
		}
	}

	// Weight and down-scale the metadata block
	for j := 0; j < 3; j++ {
		w := metaWeights[j] * MetaBlockScale
		for i := 0; i < n; i++ {
			fused.Set(i, d+j, fused.At(i, d+j)*w)
		}
	}

	return fused, nil
}
