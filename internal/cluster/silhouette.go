package cluster

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Silhouette computes the mean silhouette coefficient over all rows:
// for each point, (b-a)/max(a,b) with a the mean distance to its own
// cluster and b the smallest mean distance to another cluster. Higher
// is better; range [-1, 1].
func Silhouette(X *mat.Dense, labels []int, k int) float64 {
	n, d := X.Dims()
	if k < 2 || n < 2 {
		return 0
	}

	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}

	total := 0.0
	meanDist := make([]float64, k)
	for i := 0; i < n; i++ {
		for c := range meanDist {
			meanDist[c] = 0
		}
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			sum := 0.0
			for c := 0; c < d; c++ {
				diff := X.At(i, c) - X.At(j, c)
				sum += diff * diff
			}
			meanDist[labels[j]] += math.Sqrt(sum)
		}

		own := labels[i]
		if counts[own] <= 1 {
			continue // Singleton clusters score zero
		}
		a := meanDist[own] / float64(counts[own]-1)

		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own || counts[c] == 0 {
				continue
			}
			if m := meanDist[c] / float64(counts[c]); m < b {
				b = m
			}
		}

		if max := math.Max(a, b); max > 0 {
			total += (b - a) / max
		}
	}

	return total / float64(n)
}

// AutoK tries every candidate k in [AutoKMin, min(AutoKMax, N/10)),
// scores each clustering by silhouette and keeps the best; ties go to
// the smaller k. When the candidate range is empty the batch is too
// small to search: batches of at least MinEntries fall back to
// FallbackK, smaller ones are rejected.
func AutoK(X *mat.Dense, seed int64, restarts int) (*Result, error) {
	n, _ := X.Dims()

	upper := AutoKMax
	if n/10 < upper {
		upper = n / 10
	}

	if AutoKMin >= upper {
		if n < MinEntries {
			return nil, fmt.Errorf("%w: %d entries", ErrTooFewEntries, n)
		}
		res, err := KMeans(X, FallbackK, seed, restarts)
		if err != nil {
			return nil, err
		}
		res.Silhouette = Silhouette(X, res.Labels, res.K)
		return res, nil
	}

	var best *Result
	for k := AutoKMin; k < upper; k++ {
		res, err := KMeans(X, k, seed, restarts)
		if err != nil {
			return nil, err
		}
		res.Silhouette = Silhouette(X, res.Labels, k)
		if best == nil || res.Silhouette > best.Silhouette {
			best = res
		}
	}
	return best, nil
}
