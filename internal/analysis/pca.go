package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCAOptions tunes the power-iteration eigendecomposition.
type PCAOptions struct {
	// Components is the number of components requested; capped at the column count.
	Components int
	// Iterations is the power-iteration budget per component.
	Iterations int
	// Tolerance stops a component early once successive eigenvalue estimates
	// differ by less than it. Zero runs the full budget.
	Tolerance float64
}

// DefaultPCAOptions mirrors the reference page: 10 components, 100 iterations,
// no early stop.
func DefaultPCAOptions() PCAOptions {
	return PCAOptions{Components: 10, Iterations: 100}
}

// Component is one extracted eigenpair.
type Component struct {
	Eigenvalue  float64   `json:"eigenvalue"`
	Eigenvector []float64 `json:"eigenvector"`
	Iterations  int       `json:"iterations"`
}

// PCAResult holds the extracted components in extraction order.
type PCAResult struct {
	Components         []Component
	ExplainedVariance  []float64
	CumulativeVariance []float64
	// Projected has one row per observation and one value per component.
	Projected [][]float64
}

// Loadings returns the eigenvectors, one per component.
func (r *PCAResult) Loadings() [][]float64 {
	out := make([][]float64, len(r.Components))
	for i, c := range r.Components {
		out[i] = c.Eigenvector
	}
	return out
}

// PCA extracts principal components from a normalized matrix with power
// iteration and rank-one deflation. Explained variance is relative to the sum
// of the extracted eigenvalues only.
func PCA(data [][]float64, opts PCAOptions) (*PCAResult, error) {
	n, d, err := shape("pca", data)
	if err != nil {
		return nil, err
	}
	if opts.Components <= 0 {
		return nil, invalidParam("pca", "components must be positive, got %d", opts.Components)
	}
	if opts.Iterations <= 0 {
		return nil, invalidParam("pca", "iterations must be positive, got %d", opts.Iterations)
	}
	if n < 2 {
		return nil, insufficient("pca", 2, n)
	}

	x := mat.NewDense(n, d, nil)
	for i, row := range data {
		x.SetRow(i, row)
	}
	cov := mat.NewSymDense(d, nil)
	stat.CovarianceMatrix(cov, x, nil)

	k := opts.Components
	if k > d {
		k = d
	}
	res := &PCAResult{Components: make([]Component, 0, k)}
	for c := 0; c < k; c++ {
		comp := powerIteration(cov, opts.Iterations, opts.Tolerance)
		res.Components = append(res.Components, comp)
		v := mat.NewVecDense(d, comp.Eigenvector)
		cov.SymRankOne(cov, -comp.Eigenvalue, v)
	}

	var total float64
	for _, c := range res.Components {
		total += c.Eigenvalue
	}
	res.ExplainedVariance = make([]float64, k)
	res.CumulativeVariance = make([]float64, k)
	var cum float64
	for i, c := range res.Components {
		if total > 0 {
			res.ExplainedVariance[i] = c.Eigenvalue / total
		}
		cum += res.ExplainedVariance[i]
		res.CumulativeVariance[i] = cum
	}

	res.Projected = make([][]float64, n)
	for i, row := range data {
		p := make([]float64, k)
		for c, comp := range res.Components {
			p[c] = floats.Dot(row, comp.Eigenvector)
		}
		res.Projected[i] = p
	}
	return res, nil
}

func powerIteration(m *mat.SymDense, iterations int, tol float64) Component {
	d := m.SymmetricDim()
	start := make([]float64, d)
	for i := range start {
		start[i] = 1 / math.Sqrt(float64(d))
	}
	v := mat.NewVecDense(d, start)
	w := mat.NewVecDense(d, nil)
	var (
		lambda float64
		iter   int
	)
	for iter = 1; iter <= iterations; iter++ {
		w.MulVec(m, v)
		norm := mat.Norm(w, 2)
		if norm == 0 {
			// Fully deflated or zero covariance.
			lambda = 0
			break
		}
		prev := lambda
		lambda = norm
		v.ScaleVec(1/norm, w)
		if tol > 0 && iter > 1 && math.Abs(lambda-prev) < tol {
			break
		}
	}
	if iter > iterations {
		iter = iterations
	}
	return Component{
		Eigenvalue:  math.Abs(lambda),
		Eigenvector: append([]float64(nil), v.RawVector().Data...),
		Iterations:  iter,
	}
}
