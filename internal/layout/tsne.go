package layout

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// t-SNE hyperparameters. Perplexity is capped at min(30, N-1) so small
// batches stay valid; wide inputs are linearly reduced to 50 dimensions
// first for tractability.
const (
	tsnePerplexityCap = 30
	tsnePCADims       = 50
	tsneIterations    = 500
	tsneLearningRate  = 200.0
	tsneExaggeration  = 4.0
	tsneExaggerateFor = 100
	tsneMomentumEarly = 0.5
	tsneMomentumLate  = 0.8
	tsneMomentumAt    = 250
)

// tsne2D is the local-similarity-preserving nonlinear embedding.
func tsne2D(X *mat.Dense, seed int64) ([]Point, error) {
	n, d := X.Dims()

	if d > tsnePCADims {
		reduced, err := pcaProject(X, tsnePCADims)
		if err != nil {
			return nil, err
		}
		X = reduced
		_, d = X.Dims()
	}

	perplexity := float64(tsnePerplexityCap)
	if float64(n-1) < perplexity {
		perplexity = float64(n - 1)
	}

	P := affinities(X, perplexity)

	// Symmetrize and apply early exaggeration
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			p := (P[i][j] + P[j][i]) / (2 * float64(n))
			if p < 1e-12 {
				p = 1e-12
			}
			P[i][j] = p * tsneExaggeration
			P[j][i] = P[i][j]
		}
		P[i][i] = 0
	}

	rng := rand.New(rand.NewSource(seed))
	Y := make([][2]float64, n)
	for i := range Y {
		Y[i][0] = rng.NormFloat64() * 1e-4
		Y[i][1] = rng.NormFloat64() * 1e-4
	}

	velocity := make([][2]float64, n)
	grad := make([][2]float64, n)
	Q := make([][]float64, n)
	for i := range Q {
		Q[i] = make([]float64, n)
	}

	for iter := 0; iter < tsneIterations; iter++ {
		// Low-dimensional affinities (Student t kernel)
		sumQ := 0.0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dx := Y[i][0] - Y[j][0]
				dy := Y[i][1] - Y[j][1]
				q := 1 / (1 + dx*dx + dy*dy)
				Q[i][j] = q
				Q[j][i] = q
				sumQ += 2 * q
			}
		}

		for i := 0; i < n; i++ {
			grad[i][0] = 0
			grad[i][1] = 0
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				q := Q[i][j]
				mult := (P[i][j] - q/sumQ) * q
				grad[i][0] += 4 * mult * (Y[i][0] - Y[j][0])
				grad[i][1] += 4 * mult * (Y[i][1] - Y[j][1])
			}
		}

		momentum := tsneMomentumEarly
		if iter >= tsneMomentumAt {
			momentum = tsneMomentumLate
		}
		for i := 0; i < n; i++ {
			velocity[i][0] = momentum*velocity[i][0] - tsneLearningRate*grad[i][0]
			velocity[i][1] = momentum*velocity[i][1] - tsneLearningRate*grad[i][1]
			Y[i][0] += velocity[i][0]
			Y[i][1] += velocity[i][1]
		}

		if iter == tsneExaggerateFor {
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					P[i][j] /= tsneExaggeration
				}
			}
		}
	}

	points := make([]Point, n)
	for i := range points {
		points[i] = Point{X: Y[i][0], Y: Y[i][1]}
	}
	return points, nil
}

// affinities computes the conditional p_{j|i} matrix, binary-searching
// each point's bandwidth to hit the target perplexity.
func affinities(X *mat.Dense, perplexity float64) [][]float64 {
	n, d := X.Dims()
	logU := math.Log(perplexity)

	// Pairwise squared euclidean distances
	D := make([][]float64, n)
	for i := range D {
		D[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum := 0.0
			for k := 0; k < d; k++ {
				diff := X.At(i, k) - X.At(j, k)
				sum += diff * diff
			}
			D[i][j] = sum
			D[j][i] = sum
		}
	}

	P := make([][]float64, n)
	for i := 0; i < n; i++ {
		P[i] = make([]float64, n)

		beta := 1.0
		betaMin := math.Inf(-1)
		betaMax := math.Inf(1)

		for tries := 0; tries < 50; tries++ {
			sum := 0.0
			entropy := 0.0
			for j := 0; j < n; j++ {
				if j == i {
					P[i][j] = 0
					continue
				}
				p := math.Exp(-D[i][j] * beta)
				P[i][j] = p
				sum += p
				entropy += beta * D[i][j] * p
			}
			if sum == 0 {
				sum = 1e-12
			}
			entropy = entropy/sum + math.Log(sum)

			diff := entropy - logU
			if math.Abs(diff) < 1e-5 {
				break
			}
			if diff > 0 {
				betaMin = beta
				if math.IsInf(betaMax, 1) {
					beta *= 2
				} else {
					beta = (beta + betaMax) / 2
				}
			} else {
				betaMax = beta
				if math.IsInf(betaMin, -1) {
					beta /= 2
				} else {
					beta = (beta + betaMin) / 2
				}
			}
		}

		sum := 0.0
		for j := 0; j < n; j++ {
			sum += P[i][j]
		}
		if sum == 0 {
			sum = 1e-12
		}
		for j := 0; j < n; j++ {
			P[i][j] /= sum
		}
	}

	return P
}
