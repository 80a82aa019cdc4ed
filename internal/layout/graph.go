package layout

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Neighbor-graph layout hyperparameters, following the usual UMAP
// defaults: 15 cosine-distance neighbors, 200 optimization epochs,
// 5 negative samples per edge.
const (
	graphNeighbors = 15
	graphEpochs    = 200
	graphNegatives = 5
	graphInitAlpha = 1.0
	graphMoveClip  = 4.0
)

type neighbor struct {
	idx  int
	dist float64
}

type edge struct {
	i, j   int
	weight float64
}

// graphLayout is the neighbor-graph-based nonlinear embedding: build a
// fuzzy k-nearest-neighbor graph under cosine distance, then optimize
// 2-D positions by stochastic gradient descent with attraction along
// edges and sampled repulsion. Deterministic given the seed; MinDist
// controls how tightly neighbors pack.
func graphLayout(X *mat.Dense, opts Options) ([]Point, error) {
	n, _ := X.Dims()

	k := graphNeighbors
	if k > n-1 {
		k = n - 1
	}

	knn := nearestNeighbors(X, k)
	edges := fuzzyGraph(knn, k)
	a, b := fitCurve(opts.MinDist)

	// Deterministic init from the PCA projection, rescaled to a
	// 10-unit extent.
	points, err := pca2D(X)
	if err != nil {
		return nil, err
	}
	rescale(points, 10)

	rng := rand.New(rand.NewSource(opts.Seed))

	for epoch := 0; epoch < graphEpochs; epoch++ {
		alpha := graphInitAlpha * (1 - float64(epoch)/float64(graphEpochs))

		for _, e := range edges {
			if rng.Float64() > e.weight {
				continue
			}

			attract(points, e.i, e.j, a, b, alpha)
			for s := 0; s < graphNegatives; s++ {
				repel(points, e.i, rng.Intn(n), a, b, alpha)
			}
		}
	}

	return points, nil
}

// nearestNeighbors finds each row's k nearest rows by cosine distance.
func nearestNeighbors(X *mat.Dense, k int) [][]neighbor {
	n, d := X.Dims()

	norms := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for j := 0; j < d; j++ {
			v := X.At(i, j)
			sum += v * v
		}
		norms[i] = math.Sqrt(sum)
	}

	knn := make([][]neighbor, n)
	for i := 0; i < n; i++ {
		dists := make([]neighbor, 0, n-1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			dot := 0.0
			for c := 0; c < d; c++ {
				dot += X.At(i, c) * X.At(j, c)
			}
			cos := 0.0
			if norms[i] > 0 && norms[j] > 0 {
				cos = dot / (norms[i] * norms[j])
			}
			dists = append(dists, neighbor{idx: j, dist: 1 - cos})
		}
		sort.Slice(dists, func(a, b int) bool {
			if dists[a].dist != dists[b].dist {
				return dists[a].dist < dists[b].dist
			}
			return dists[a].idx < dists[b].idx
		})
		knn[i] = dists[:k]
	}
	return knn
}

// fuzzyGraph converts the kNN lists into symmetric fuzzy edge weights.
// Per point, weights are exp(-(d - rho)/sigma) with rho the nearest
// distance and sigma binary-searched so the weights sum to log2(k);
// directed weights w_ij and w_ji combine as w_ij + w_ji - w_ij*w_ji.
func fuzzyGraph(knn [][]neighbor, k int) []edge {
	n := len(knn)
	target := math.Log2(float64(k))

	directed := make([]map[int]float64, n)
	for i, neighbors := range knn {
		rho := neighbors[0].dist

		lo, hi := 1e-3, 100.0
		sigma := 1.0
		for it := 0; it < 64; it++ {
			sigma = (lo + hi) / 2
			sum := 0.0
			for _, nb := range neighbors {
				d := nb.dist - rho
				if d < 0 {
					d = 0
				}
				sum += math.Exp(-d / sigma)
			}
			if math.Abs(sum-target) < 1e-5 {
				break
			}
			if sum > target {
				hi = sigma
			} else {
				lo = sigma
			}
		}

		directed[i] = make(map[int]float64, k)
		for _, nb := range neighbors {
			d := nb.dist - rho
			if d < 0 {
				d = 0
			}
			directed[i][nb.idx] = math.Exp(-d / sigma)
		}
	}

	var edges []edge
	for i := 0; i < n; i++ {
		for j, wij := range directed[i] {
			if j < i {
				continue // Handled from the smaller index
			}
			wji := directed[j][i]
			w := wij + wji - wij*wji
			if w > 0 {
				edges = append(edges, edge{i: i, j: j, weight: w})
			}
		}
	}
	sort.Slice(edges, func(a, b int) bool {
		if edges[a].i != edges[b].i {
			return edges[a].i < edges[b].i
		}
		return edges[a].j < edges[b].j
	})
	return edges
}

// fitCurve fits the low-dimensional kernel 1/(1 + a*d^(2b)) to the
// target membership curve implied by minDist, by coarse grid search.
// The fit is deterministic, so so is the layout.
func fitCurve(minDist float64) (a, b float64) {
	target := func(d float64) float64 {
		if d <= minDist {
			return 1
		}
		return math.Exp(-(d - minDist))
	}

	bestErr := math.Inf(1)
	a, b = 1.5, 1.0
	for ca := 0.1; ca <= 3.0; ca += 0.05 {
		for cb := 0.5; cb <= 2.0; cb += 0.05 {
			sse := 0.0
			for d := 0.05; d <= 3.0; d += 0.05 {
				curve := 1 / (1 + ca*math.Pow(d, 2*cb))
				diff := curve - target(d)
				sse += diff * diff
			}
			if sse < bestErr {
				bestErr = sse
				a, b = ca, cb
			}
		}
	}
	return a, b
}

func attract(points []Point, i, j int, a, b, alpha float64) {
	dx := points[i].X - points[j].X
	dy := points[i].Y - points[j].Y
	d2 := dx*dx + dy*dy
	if d2 == 0 {
		return
	}

	coeff := -2 * a * b * math.Pow(d2, b-1) / (1 + a*math.Pow(d2, b))
	gx := clip(coeff * dx)
	gy := clip(coeff * dy)

	points[i].X += alpha * gx
	points[i].Y += alpha * gy
	points[j].X -= alpha * gx
	points[j].Y -= alpha * gy
}

func repel(points []Point, i, j int, a, b, alpha float64) {
	if i == j {
		return
	}
	dx := points[i].X - points[j].X
	dy := points[i].Y - points[j].Y
	d2 := dx*dx + dy*dy

	coeff := 2 * b / ((0.001 + d2) * (1 + a*math.Pow(d2, b)))
	points[i].X += alpha * clip(coeff*dx)
	points[i].Y += alpha * clip(coeff*dy)
}

func clip(v float64) float64 {
	if v > graphMoveClip {
		return graphMoveClip
	}
	if v < -graphMoveClip {
		return -graphMoveClip
	}
	return v
}

// rescale normalizes points so the larger axis spans extent.
func rescale(points []Point, extent float64) {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		return
	}
	scale := extent / span
	for i := range points {
		points[i].X = (points[i].X - minX) * scale
		points[i].Y = (points[i].Y - minY) * scale
	}
}
