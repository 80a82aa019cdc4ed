// Package cluster partitions the fused feature matrix into groups with
// k-means and selects the group count by silhouette score when not
// given explicitly.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/zotatlas/zotatlas/internal/layout"
)

// Defaults matching the map builder: 10 restarts with the best inertia
// kept, seed 42 for reproducibility.
const (
	DefaultRestarts  = 10
	DefaultSeed      = 42
	maxIterations    = 300
	convergenceDelta = 1e-6

	// Auto-selection candidate bounds: k in [AutoKMin, min(AutoKMax, N/10)).
	AutoKMin = 5
	AutoKMax = 20

	// FallbackK is used when the batch is too small for the candidate
	// range but still clusterable.
	FallbackK = 2

	// MinEntries is the smallest batch worth clustering at all.
	MinEntries = 4
)

// ErrTooFewEntries is returned when the batch cannot be clustered
// meaningfully.
var ErrTooFewEntries = errors.New("too few entries to cluster")

// Result holds one clustering of the batch.
type Result struct {
	K          int
	Labels     []int
	Inertia    float64
	Silhouette float64 // Only set by AutoK
}

// KMeans clusters the rows of X into k groups, running restarts random
// initializations and keeping the lowest-inertia result. Deterministic
// given the seed.
func KMeans(X *mat.Dense, k int, seed int64, restarts int) (*Result, error) {
	n, d := X.Dims()
	if k < 1 {
		return nil, fmt.Errorf("invalid cluster count %d", k)
	}
	if n < k {
		return nil, fmt.Errorf("%w: %d entries for k=%d", ErrTooFewEntries, n, k)
	}
	if restarts < 1 {
		restarts = DefaultRestarts
	}

	rng := rand.New(rand.NewSource(seed))

	best := &Result{K: k, Inertia: math.Inf(1)}
	for r := 0; r < restarts; r++ {
		labels, inertia := kmeansOnce(X, n, d, k, rng)
		if inertia < best.Inertia {
			best.Labels = labels
			best.Inertia = inertia
		}
	}
	return best, nil
}

// kmeansOnce runs one k-means fit with k-means++ style seeding.
func kmeansOnce(X *mat.Dense, n, d, k int, rng *rand.Rand) ([]int, float64) {
	centroids := seedCentroids(X, n, d, k, rng)
	labels := make([]int, n)
	counts := make([]int, k)
	prev := math.Inf(1)
	inertia := 0.0

	for iter := 0; iter < maxIterations; iter++ {
		// Assign
		inertia = 0
		for i := 0; i < n; i++ {
			bestDist := math.Inf(1)
			bestC := 0
			for c := 0; c < k; c++ {
				dist := sqDist(X, i, centroids[c])
				if dist < bestDist {
					bestDist = dist
					bestC = c
				}
			}
			labels[i] = bestC
			inertia += bestDist
		}

		// Update
		for c := range centroids {
			for j := range centroids[c] {
				centroids[c][j] = 0
			}
			counts[c] = 0
		}
		for i := 0; i < n; i++ {
			c := labels[i]
			counts[c]++
			for j := 0; j < d; j++ {
				centroids[c][j] += X.At(i, j)
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// Reseed an empty cluster from the worst-fit point
				reseedEmpty(X, n, d, centroids[c], labels, centroids)
				continue
			}
			for j := 0; j < d; j++ {
				centroids[c][j] /= float64(counts[c])
			}
		}

		if prev-inertia < convergenceDelta {
			break
		}
		prev = inertia
	}

	return labels, inertia
}

// seedCentroids picks k initial centroids with distance-weighted
// (k-means++) sampling.
func seedCentroids(X *mat.Dense, n, d, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)

	first := rng.Intn(n)
	centroids = append(centroids, mat.Row(nil, first, X))

	dists := make([]float64, n)
	for len(centroids) < k {
		total := 0.0
		for i := 0; i < n; i++ {
			minDist := math.Inf(1)
			for _, c := range centroids {
				if dist := sqDist(X, i, c); dist < minDist {
					minDist = dist
				}
			}
			dists[i] = minDist
			total += minDist
		}

		pick := 0
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			for i := 0; i < n; i++ {
				acc += dists[i]
				if acc >= target {
					pick = i
					break
				}
			}
		} else {
			pick = rng.Intn(n)
		}
		centroids = append(centroids, mat.Row(nil, pick, X))
	}
	return centroids
}

// reseedEmpty replaces an empty centroid with the point farthest from
// its assigned centroid.
func reseedEmpty(X *mat.Dense, n, d int, empty []float64, labels []int, centroids [][]float64) {
	worst := 0
	worstDist := -1.0
	for i := 0; i < n; i++ {
		dist := sqDist(X, i, centroids[labels[i]])
		if dist > worstDist {
			worstDist = dist
			worst = i
		}
	}
	for j := 0; j < d; j++ {
		empty[j] = X.At(worst, j)
	}
}

func sqDist(X *mat.Dense, row int, centroid []float64) float64 {
	sum := 0.0
	for j, c := range centroid {
		diff := X.At(row, j) - c
		sum += diff * diff
	}
	return sum
}

// Centroids2D computes per-cluster centroids as the arithmetic mean of
// member layout coordinates (not the fused-feature centroid).
func Centroids2D(points []layout.Point, labels []int, k int) map[int]layout.Point {
	sums := make([]layout.Point, k)
	counts := make([]int, k)
	for i, l := range labels {
		sums[l].X += points[i].X
		sums[l].Y += points[i].Y
		counts[l]++
	}

	centroids := make(map[int]layout.Point, k)
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		centroids[c] = layout.Point{
			X: sums[c].X / float64(counts[c]),
			Y: sums[c].Y / float64(counts[c]),
		}
	}
	return centroids
}
