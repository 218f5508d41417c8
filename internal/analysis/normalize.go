package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Normalized is a column-wise z-scored matrix. Degenerate lists the indexes of
// columns whose population standard deviation was exactly 0; those columns
// are 0 in every row.
type Normalized struct {
	Data       [][]float64
	Means      []float64
	Stds       []float64
	Degenerate []int
}

// Normalize standardizes each column to mean 0 and population std 1. The
// input is not modified.
func Normalize(m [][]float64) (*Normalized, error) {
	n, d, err := shape("normalize", m)
	if err != nil {
		return nil, err
	}
	means := make([]float64, d)
	stds := make([]float64, d)
	var degenerate []int
	for j := 0; j < d; j++ {
		mean, variance := stat.PopMeanVariance(column(m, j), nil)
		means[j] = mean
		if variance > 0 {
			stds[j] = math.Sqrt(variance)
		}
		if stds[j] == 0 {
			degenerate = append(degenerate, j)
		}
	}
	out := make([][]float64, n)
	for i, row := range m {
		z := make([]float64, d)
		for j, v := range row {
			if stds[j] != 0 {
				z[j] = (v - means[j]) / stds[j]
			}
		}
		out[i] = z
	}
	return &Normalized{Data: out, Means: means, Stds: stds, Degenerate: degenerate}, nil
}

// shape validates that m is non-empty and rectangular and returns its dimensions.
func shape(stage string, m [][]float64) (rows, cols int, err error) {
	if len(m) == 0 || len(m[0]) == 0 {
		return 0, 0, emptyInput(stage)
	}
	cols = len(m[0])
	for i, row := range m {
		if len(row) != cols {
			return 0, 0, &DimensionMismatchError{Stage: stage, Row: i, Got: len(row), Want: cols}
		}
	}
	return len(m), cols, nil
}

func column(m [][]float64, j int) []float64 {
	out := make([]float64, len(m))
	for i, row := range m {
		out[i] = row[j]
	}
	return out
}
