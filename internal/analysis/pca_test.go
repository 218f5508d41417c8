package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPCAVarianceSumsToOne(t *testing.T) {
	data := blobs(7, [][]float64{{0, 0, 0}, {4, 1, -2}, {-3, 2, 5}}, 6, 2)
	norm, err := Normalize(data)
	require.NoError(t, err)

	res, err := PCA(norm.Data, PCAOptions{Components: 10, Iterations: 200})
	require.NoError(t, err)
	require.Len(t, res.Components, 3, "components capped at column count")

	var sum float64
	for _, v := range res.ExplainedVariance {
		sum += v
	}
	assert.InDelta(t, 1, sum, 1e-9)
	for i := 1; i < len(res.CumulativeVariance); i++ {
		assert.GreaterOrEqual(t, res.CumulativeVariance[i], res.CumulativeVariance[i-1])
	}
	assert.InDelta(t, 1, res.CumulativeVariance[len(res.CumulativeVariance)-1], 1e-9)

	require.Len(t, res.Projected, len(data))
	for _, row := range res.Projected {
		require.Len(t, row, 3)
	}
	for _, c := range res.Components {
		var n2 float64
		for _, v := range c.Eigenvector {
			n2 += v * v
		}
		assert.InDelta(t, 1, math.Sqrt(n2), 1e-9)
		assert.GreaterOrEqual(t, c.Eigenvalue, 0.0)
	}
	assert.Len(t, res.Loadings(), 3)
}

func TestPCAPerfectlyCorrelatedColumns(t *testing.T) {
	raw := [][]float64{{1, 1}, {2, 2}, {3, 3}, {4, 4}}
	norm, err := Normalize(raw)
	require.NoError(t, err)
	res, err := PCA(norm.Data, DefaultPCAOptions())
	require.NoError(t, err)
	require.Len(t, res.Components, 2)

	// each normalized column has sample variance n/(n-1)
	s := 4.0 / 3.0
	assert.InDelta(t, 2*s, res.Components[0].Eigenvalue, 1e-9)
	assert.InDelta(t, 1/math.Sqrt2, math.Abs(res.Components[0].Eigenvector[0]), 1e-9)
	assert.InDelta(t, 0, res.Components[1].Eigenvalue, 1e-9)
	assert.InDelta(t, 1, res.ExplainedVariance[0], 1e-9)

	// projection is the dot product with the first eigenvector
	want := norm.Data[0][0]*res.Components[0].Eigenvector[0] + norm.Data[0][1]*res.Components[0].Eigenvector[1]
	assert.InDelta(t, want, res.Projected[0][0], 1e-12)
}

func TestPCADegenerateCovariance(t *testing.T) {
	zero := [][]float64{{0, 0}, {0, 0}, {0, 0}}
	res, err := PCA(zero, DefaultPCAOptions())
	require.NoError(t, err)
	for i, c := range res.Components {
		assert.Equal(t, 0.0, c.Eigenvalue)
		assert.Equal(t, 0.0, res.ExplainedVariance[i])
	}
}

func TestPCATolerance(t *testing.T) {
	data := blobs(3, [][]float64{{0, 0}, {5, 3}}, 10, 1)
	norm, err := Normalize(data)
	require.NoError(t, err)
	res, err := PCA(norm.Data, PCAOptions{Components: 1, Iterations: 100, Tolerance: 1e-6})
	require.NoError(t, err)
	assert.Less(t, res.Components[0].Iterations, 100)

	fixed, err := PCA(norm.Data, PCAOptions{Components: 1, Iterations: 100})
	require.NoError(t, err)
	assert.Equal(t, 100, fixed.Components[0].Iterations)
	assert.InDelta(t, fixed.Components[0].Eigenvalue, res.Components[0].Eigenvalue, 1e-4)
}

func TestPCAErrors(t *testing.T) {
	_, err := PCA(nil, DefaultPCAOptions())
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = PCA([][]float64{{1, 2}}, DefaultPCAOptions())
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = PCA([][]float64{{1}, {2}}, PCAOptions{Components: 0, Iterations: 10})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
