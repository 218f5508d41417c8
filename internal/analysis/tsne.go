package analysis

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// TSNEOptions tunes the embedding.
type TSNEOptions struct {
	Perplexity   float64
	Iterations   int
	LearningRate float64
}

// DefaultTSNEOptions returns perplexity 30, 1000 iterations, learning rate 200.
func DefaultTSNEOptions() TSNEOptions {
	return TSNEOptions{Perplexity: 30, Iterations: 1000, LearningRate: 200}
}

const (
	tsneFloor          = 1e-12
	tsneEntropyTol     = 1e-5
	tsneSearchSteps    = 50
	tsneMomentumSwitch = 250
	tsneEarlyMomentum  = 0.5
	tsneFinalMomentum  = 0.8
	tsneInitScale      = 1e-4
)

// Embedding is a 2-D t-SNE layout, one point per observation, centered at 0.
type Embedding struct {
	Y          [][2]float64 `json:"y"`
	Perplexity float64      `json:"perplexity"`
	Iterations int          `json:"iterations"`
}

// TSNE embeds data in two dimensions. The optimization always runs the full
// iteration budget unless ctx is cancelled, in which case ctx.Err() is returned.
func TSNE(ctx context.Context, data [][]float64, opts TSNEOptions, rng *rand.Rand) (*Embedding, error) {
	n, _, err := shape("tsne", data)
	if err != nil {
		return nil, err
	}
	if !(opts.Perplexity > 0) {
		return nil, invalidParam("tsne", "perplexity must be positive, got %v", opts.Perplexity)
	}
	if opts.Iterations < 1 {
		return nil, invalidParam("tsne", "iterations must be positive, got %d", opts.Iterations)
	}
	if !(opts.LearningRate > 0) {
		return nil, invalidParam("tsne", "learning rate must be positive, got %v", opts.LearningRate)
	}
	if n < 2 {
		return nil, insufficient("tsne", 2, n)
	}

	p := affinities(data, opts.Perplexity)

	y := make([][2]float64, n)
	for i := range y {
		y[i] = [2]float64{(rng.Float64() - 0.5) * tsneInitScale, (rng.Float64() - 0.5) * tsneInitScale}
	}
	mom := make([][2]float64, n)
	q := make([][]float64, n)
	for i := range q {
		q[i] = make([]float64, n)
	}
	grad := make([][2]float64, n)

	for iter := 0; iter < opts.Iterations; iter++ {
		if iter%50 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		lowAffinities(y, q)
		gradient(p, q, y, grad)
		m := tsneEarlyMomentum
		if iter >= tsneMomentumSwitch {
			m = tsneFinalMomentum
		}
		var mean [2]float64
		for i := range y {
			for d := 0; d < 2; d++ {
				mom[i][d] = m*mom[i][d] - opts.LearningRate*grad[i][d]
				y[i][d] += mom[i][d]
				mean[d] += y[i][d]
			}
		}
		mean[0] /= float64(n)
		mean[1] /= float64(n)
		for i := range y {
			y[i][0] -= mean[0]
			y[i][1] -= mean[1]
		}
	}
	return &Embedding{Y: y, Perplexity: opts.Perplexity, Iterations: opts.Iterations}, nil
}

// affinities computes the symmetrized high-dimensional P matrix. Each row's
// Gaussian precision is found by bisection on the entropy of P_i.
func affinities(data [][]float64, perplexity float64) [][]float64 {
	n := len(data)
	sq := make([][]float64, n)
	for i := range sq {
		sq[i] = make([]float64, n)
		for j := range sq[i] {
			if i != j {
				sq[i][j] = sqDist(data[i], data[j])
			}
		}
	}
	target := math.Log(perplexity)
	cond := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, n)
		beta, lo, hi := 1.0, math.Inf(-1), math.Inf(1)
		for step := 0; step < tsneSearchSteps; step++ {
			var sum float64
			for j := 0; j < n; j++ {
				row[j] = 0
				if j != i {
					row[j] = math.Exp(-beta * sq[i][j])
					sum += row[j]
				}
			}
			if sum > 0 {
				for j := range row {
					row[j] /= sum
				}
			}
			var h float64
			for _, v := range row {
				if v > 1e-10 {
					h -= v * math.Log(v)
				}
			}
			diff := h - target
			if math.Abs(diff) < tsneEntropyTol {
				break
			}
			if diff > 0 {
				lo = beta
				if math.IsInf(hi, 1) {
					beta *= 2
				} else {
					beta = (beta + hi) / 2
				}
			} else {
				hi = beta
				if math.IsInf(lo, -1) {
					beta /= 2
				} else {
					beta = (beta + lo) / 2
				}
			}
		}
		cond[i] = row
	}
	p := make([][]float64, n)
	for i := range p {
		p[i] = make([]float64, n)
		for j := range p[i] {
			p[i][j] = math.Max((cond[i][j]+cond[j][i])/(2*float64(n)), tsneFloor)
		}
	}
	return p
}

func lowAffinities(y [][2]float64, q [][]float64) {
	n := len(y)
	var sum float64
	for i := 0; i < n; i++ {
		q[i][i] = 0
		for j := i + 1; j < n; j++ {
			v := 1 / (1 + sqDist2(y[i], y[j]))
			q[i][j], q[j][i] = v, v
			sum += 2 * v
		}
	}
	if sum == 0 {
		return
	}
	for i := range q {
		for j := range q[i] {
			q[i][j] = math.Max(q[i][j]/sum, tsneFloor)
		}
	}
}

func gradient(p, q [][]float64, y, grad [][2]float64) {
	for i := range y {
		grad[i] = [2]float64{}
		for j := range y {
			if i == j {
				continue
			}
			mult := (p[i][j] - q[i][j]) / (1 + sqDist2(y[i], y[j]))
			grad[i][0] += 4 * mult * (y[i][0] - y[j][0])
			grad[i][1] += 4 * mult * (y[i][1] - y[j][1])
		}
	}
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func sqDist2(a, b [2]float64) float64 {
	dx, dy := a[0]-b[0], a[1]-b[1]
	return dx*dx + dy*dy
}
