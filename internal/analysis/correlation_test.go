package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpearmanMonotone(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	r, err := Spearman(x, []float64{10, 20, 30, 40, 50}, TiesPositional)
	require.NoError(t, err)
	assert.InDelta(t, 1, r, 1e-12)

	r, err = Spearman(x, []float64{5, 4, 3, 2, 1}, TiesPositional)
	require.NoError(t, err)
	assert.InDelta(t, -1, r, 1e-12)
}

func TestSpearmanTies(t *testing.T) {
	x := []float64{1, 1, 2}
	y := []float64{1, 2, 3}

	// positional: stable sort hands the tied pair ranks 1 and 2
	r, err := Spearman(x, y, TiesPositional)
	require.NoError(t, err)
	assert.InDelta(t, 1, r, 1e-12)

	r, err = Spearman(x, y, TiesAverage)
	require.NoError(t, err)
	assert.InDelta(t, 0.8660254037844386, r, 1e-12)

	r, err = Spearman([]float64{3, 3, 3}, y, TiesAverage)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r)
}

func TestSpearmanErrors(t *testing.T) {
	_, err := Spearman([]float64{1, 2}, []float64{1}, TiesPositional)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = Spearman(nil, nil, TiesPositional)
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = Spearman([]float64{1}, []float64{1}, TiesPositional)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = ParseTieMode("kendall")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestCorrelationMatrixProperties(t *testing.T) {
	ds := surveyDataset(t)
	enc, err := Encode(ds)
	require.NoError(t, err)
	for _, mode := range []TieMode{TiesPositional, TiesAverage} {
		cm, err := Correlations(enc.Table.Columns, enc.Matrix, mode)
		require.NoError(t, err)
		d := len(cm.Columns)
		for i := 0; i < d; i++ {
			assert.Equal(t, 1.0, cm.Values[i][i])
			for j := 0; j < d; j++ {
				assert.Equal(t, cm.Values[i][j], cm.Values[j][i])
				assert.GreaterOrEqual(t, cm.Values[i][j], -1.0)
				assert.LessOrEqual(t, cm.Values[i][j], 1.0)
			}
		}
	}
}

func TestCorrelationTopAndGet(t *testing.T) {
	cols := []string{"a", "b", "c"}
	m := [][]float64{
		{1, 5, 1},
		{2, 3, 2},
		{3, 4, 3},
		{4, 1, 4},
		{5, 2, 5},
	}
	cm, err := Correlations(cols, m, TiesPositional)
	require.NoError(t, err)

	r, err := cm.Get("c", "a")
	require.NoError(t, err)
	assert.InDelta(t, 1, r, 1e-12)
	_, err = cm.Get("a", "zzz")
	assert.ErrorIs(t, err, ErrUnknownColumn)

	top := cm.Top(1)
	require.Len(t, top, 1)
	assert.Equal(t, "a", top[0].Var1)
	assert.Equal(t, "c", top[0].Var2)

	all := cm.Top(0)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, abs64(all[i-1].Correlation), abs64(all[i].Correlation))
	}
}

func TestCorrelationsColumnNameMismatch(t *testing.T) {
	_, err := Correlations([]string{"a"}, [][]float64{{1, 2}, {2, 3}}, TiesPositional)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
