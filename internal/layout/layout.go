// Package layout projects the fused feature matrix to 2-D coordinates
// for the map view. All three reducers are deterministic given a seed;
// none of them feeds back into clustering, which always runs on the
// pre-reduction matrix.
package layout

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Reducer method names accepted on the command line.
const (
	MethodUMAP = "umap"
	MethodPCA  = "pca"
	MethodTSNE = "tsne"
)

// DefaultSeed fixes the layout across rebuilds of an unchanged library.
const DefaultSeed = 42

// Point is one entry's 2-D map position.
type Point struct {
	X, Y float64
}

// Options configure a reduction.
type Options struct {
	Seed    int64
	MinDist float64 // Graph layout spread control, 0.1 (tight) to 0.5 (spread)
}

// Reduce projects X (N×D) to N 2-D points with the named method.
func Reduce(method string, X *mat.Dense, opts Options) ([]Point, error) {
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	if opts.MinDist == 0 {
		opts.MinDist = 0.3
	}

	n, _ := X.Dims()
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 entries to lay out, got %d", n)
	}

	switch method {
	case MethodPCA:
		return pca2D(X)
	case MethodTSNE:
		return tsne2D(X, opts.Seed)
	case MethodUMAP, "":
		return graphLayout(X, opts)
	default:
		return nil, fmt.Errorf("unknown reduction method %q", method)
	}
}

// center returns a copy of X with column means subtracted.
func center(X *mat.Dense) *mat.Dense {
	n, d := X.Dims()
	out := mat.NewDense(n, d, nil)
	for j := 0; j < d; j++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += X.At(i, j)
		}
		mean := sum / float64(n)
		for i := 0; i < n; i++ {
			out.Set(i, j, X.At(i, j)-mean)
		}
	}
	return out
}

// pcaProject centers X and projects it onto its top k principal
// components via thin SVD.
func pcaProject(X *mat.Dense, k int) (*mat.Dense, error) {
	n, d := X.Dims()
	if k > d {
		k = d
	}

	centered := center(X)

	var svd mat.SVD
	if !svd.Factorize(centered, mat.SVDThin) {
		return nil, fmt.Errorf("svd failed to factorize %dx%d matrix", n, d)
	}

	var vt mat.Dense
	svd.VTo(&vt)

	components := mat.NewDense(d, k, nil)
	for j := 0; j < k; j++ {
		for i := 0; i < d; i++ {
			components.Set(i, j, vt.At(i, j))
		}
	}

	var projected mat.Dense
	projected.Mul(centered, components)
	return &projected, nil
}

// pca2D is the linear global-variance-maximizing projection.
func pca2D(X *mat.Dense) ([]Point, error) {
	proj, err := pcaProject(X, 2)
	if err != nil {
		return nil, err
	}
	n, k := proj.Dims()
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		points[i].X = proj.At(i, 0)
		if k > 1 {
			points[i].Y = proj.At(i, 1)
		}
	}
	return points, nil
}
