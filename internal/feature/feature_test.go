package feature

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestComposeShape(t *testing.T) {
	embeddings := [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	}
	meta := []Meta{
		{VenueQuality: 5, TypeScore: 3, Age: 1},
		{VenueQuality: 2.5, TypeScore: 2, Age: 4},
		{VenueQuality: 4, TypeScore: 3, Age: 10},
	}

	fused, err := Compose(embeddings, meta)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	n, d := fused.Dims()
	if n != 3 || d != 7 {
		t.Errorf("dims = %dx%d, want 3x7", n, d)
	}
}

func TestComposeStandardizesColumns(t *testing.T) {
	embeddings := [][]float32{
		{10}, {20}, {30}, {40},
	}
	meta := []Meta{
		{VenueQuality: 5, TypeScore: 1, Age: 0},
		{VenueQuality: 4, TypeScore: 2, Age: 2},
		{VenueQuality: 3, TypeScore: 3, Age: 4},
		{VenueQuality: 2, TypeScore: 4, Age: 6},
	}

	fused, err := Compose(embeddings, meta)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	// Embedding column: zero mean, unit sample variance
	col := mat.Col(nil, 0, fused)
	sum, sumSq := 0.0, 0.0
	for _, v := range col {
		sum += v
		sumSq += v * v
	}
	if math.Abs(sum) > 1e-9 {
		t.Errorf("embedding column mean = %g, want 0", sum/4)
	}
	variance := sumSq / 3
	if math.Abs(variance-1) > 1e-9 {
		t.Errorf("embedding column variance = %g, want 1", variance)
	}
}

func TestComposeMetaWeights(t *testing.T) {
	embeddings := [][]float32{{0}, {0}}
	meta := []Meta{
		{VenueQuality: 0, TypeScore: 0, Age: 0},
		{VenueQuality: 1, TypeScore: 1, Age: 1},
	}

	fused, err := Compose(embeddings, meta)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	// After standardization all three metadata columns are identical;
	// the remaining difference between columns is the weight ratio.
	venue := math.Abs(fused.At(1, 1))
	typ := math.Abs(fused.At(1, 2))
	age := math.Abs(fused.At(1, 3))

	if math.Abs(venue/typ-metaWeights[0]/metaWeights[1]) > 1e-9 {
		t.Errorf("venue/type ratio = %g, want %g", venue/typ, metaWeights[0]/metaWeights[1])
	}
	if math.Abs(age/typ-metaWeights[2]/metaWeights[1]) > 1e-9 {
		t.Errorf("age/type ratio = %g, want %g", age/typ, metaWeights[2]/metaWeights[1])
	}
}

func TestComposeConstantColumn(t *testing.T) {
	embeddings := [][]float32{
		{7, 1},
		{7, 2},
		{7, 3},
	}
	meta := []Meta{
		{VenueQuality: 2.5}, {VenueQuality: 2.5}, {VenueQuality: 2.5},
	}

	fused, err := Compose(embeddings, meta)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	// A constant column centers to zero instead of dividing by zero
	for i := 0; i < 3; i++ {
		if v := fused.At(i, 0); v != 0 {
			t.Errorf("constant embedding column row %d = %g, want 0", i, v)
		}
		if v := fused.At(i, 2); v != 0 {
			t.Errorf("constant venue column row %d = %g, want 0", i, v)
		}
		if math.IsNaN(fused.At(i, 1)) {
			t.Errorf("row %d contains NaN", i)
		}
	}
}

func TestComposeErrors(t *testing.T) {
	if _, err := Compose(nil, nil); err == nil {
		t.Error("expected error for empty batch")
	}
	if _, err := Compose([][]float32{{1}}, nil); err == nil {
		t.Error("expected error for length mismatch")
	}
	if _, err := Compose([][]float32{{1, 2}, {1}}, make([]Meta, 2)); err == nil {
		t.Error("expected error for ragged embeddings")
	}
}
