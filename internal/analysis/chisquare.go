package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// PValueMethod selects how the chi-square p-value is obtained.
type PValueMethod string

const (
	// PValueTable uses a normal approximation for df >= 30 and otherwise a
	// nearest-df lookup in a small critical-value table. The result is one of
	// 0.1, 0.03, 0.005 or 0.0001.
	PValueTable PValueMethod = "table"
	// PValueExact uses the chi-square survival function.
	PValueExact PValueMethod = "exact"
)

// ParsePValueMethod accepts "", "table" or "exact".
func ParsePValueMethod(s string) (PValueMethod, error) {
	switch PValueMethod(s) {
	case "", PValueTable:
		return PValueTable, nil
	case PValueExact:
		return PValueExact, nil
	}
	return "", invalidParam("chisquare", "unknown p-value method %q", s)
}

// SignificanceLevel is the p-value threshold for ChiSquareResult.Significant.
const SignificanceLevel = 0.05

// ChiSquareResult is a test of independence between two categorical columns.
// Row and column values are listed in first-seen order; Observed and Expected
// are indexed [row][col] against them.
type ChiSquareResult struct {
	Var1        string      `json:"var1"`
	Var2        string      `json:"var2"`
	Short1      string      `json:"short1,omitempty"`
	Short2      string      `json:"short2,omitempty"`
	RowValues   []string    `json:"rowValues"`
	ColValues   []string    `json:"colValues"`
	Observed    [][]int     `json:"observed"`
	Expected    [][]float64 `json:"expected"`
	RowTotals   []int       `json:"rowTotals"`
	ColTotals   []int       `json:"colTotals"`
	GrandTotal  int         `json:"grandTotal"`
	ChiSquare   float64     `json:"chiSquare"`
	DF          int         `json:"df"`
	PValue      float64     `json:"pValue"`
	CramersV    float64     `json:"cramersV"`
	Significant bool        `json:"significant"`
}

// ChiSquare builds the contingency table of two raw columns and tests them
// for independence.
func ChiSquare(ds *Dataset, var1, var2 string, method PValueMethod) (*ChiSquareResult, error) {
	if err := ds.validate("chisquare"); err != nil {
		return nil, err
	}
	a, err := ds.Column(var1)
	if err != nil {
		return nil, fmt.Errorf("chisquare: %w", err)
	}
	b, err := ds.Column(var2)
	if err != nil {
		return nil, fmt.Errorf("chisquare: %w", err)
	}

	res := &ChiSquareResult{Var1: var1, Var2: var2}
	rowIdx := map[string]int{}
	colIdx := map[string]int{}
	type cell struct{ r, c int }
	counts := map[cell]int{}
	for i := range a {
		r, ok := rowIdx[a[i]]
		if !ok {
			r = len(res.RowValues)
			rowIdx[a[i]] = r
			res.RowValues = append(res.RowValues, a[i])
		}
		c, ok := colIdx[b[i]]
		if !ok {
			c = len(res.ColValues)
			colIdx[b[i]] = c
			res.ColValues = append(res.ColValues, b[i])
		}
		counts[cell{r, c}]++
	}

	nr, nc := len(res.RowValues), len(res.ColValues)
	res.Observed = make([][]int, nr)
	res.RowTotals = make([]int, nr)
	res.ColTotals = make([]int, nc)
	for r := 0; r < nr; r++ {
		res.Observed[r] = make([]int, nc)
		for c := 0; c < nc; c++ {
			o := counts[cell{r, c}]
			res.Observed[r][c] = o
			res.RowTotals[r] += o
			res.ColTotals[c] += o
			res.GrandTotal += o
		}
	}

	res.Expected = make([][]float64, nr)
	for r := 0; r < nr; r++ {
		res.Expected[r] = make([]float64, nc)
		for c := 0; c < nc; c++ {
			e := float64(res.RowTotals[r]) * float64(res.ColTotals[c]) / float64(res.GrandTotal)
			res.Expected[r][c] = e
			if e > 0 {
				d := float64(res.Observed[r][c]) - e
				res.ChiSquare += d * d / e
			}
		}
	}
	res.DF = (nr - 1) * (nc - 1)
	res.PValue = ChiSquarePValue(res.ChiSquare, res.DF, method)
	if minDim := min(nr-1, nc-1); minDim > 0 {
		res.CramersV = math.Sqrt(res.ChiSquare / (float64(res.GrandTotal) * float64(minDim)))
	}
	res.Significant = res.PValue < SignificanceLevel
	return res, nil
}

// criticalValues holds the 0.05, 0.01 and 0.001 critical values per df.
var criticalValues = []struct {
	df int
	cv [3]float64
}{
	{1, [3]float64{3.841, 6.635, 10.828}},
	{2, [3]float64{5.991, 9.210, 13.816}},
	{3, [3]float64{7.815, 11.345, 16.266}},
	{4, [3]float64{9.488, 13.277, 18.467}},
	{5, [3]float64{11.070, 15.086, 20.515}},
	{10, [3]float64{18.307, 23.209, 29.588}},
	{15, [3]float64{24.996, 30.578, 37.697}},
	{20, [3]float64{31.410, 37.566, 45.315}},
}

// ChiSquarePValue returns the upper-tail p-value of a chi-square statistic.
func ChiSquarePValue(x float64, df int, method PValueMethod) float64 {
	if method == PValueExact {
		if df <= 0 {
			return 1
		}
		return distuv.ChiSquared{K: float64(df)}.Survival(x)
	}
	if df >= 30 {
		z := math.Sqrt(2*x) - math.Sqrt(float64(2*df-1))
		return distuv.UnitNormal.Survival(z)
	}
	// nearest tabulated df; ties go to the smaller one
	best := criticalValues[0]
	for _, row := range criticalValues[1:] {
		if abs(row.df-df) < abs(best.df-df) {
			best = row
		}
	}
	switch {
	case x < best.cv[0]:
		return 0.1
	case x < best.cv[1]:
		return 0.03
	case x < best.cv[2]:
		return 0.005
	}
	return 0.0001
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ColumnPair names two columns to test together.
type ColumnPair struct {
	Var1 string `mapstructure:"var1" yaml:"var1" json:"var1"`
	Var2 string `mapstructure:"var2" yaml:"var2" json:"var2"`
}

// AllPairs lists every unordered pair of columns in column order.
func AllPairs(columns []string) []ColumnPair {
	var out []ColumnPair
	for i := range columns {
		for j := i + 1; j < len(columns); j++ {
			out = append(out, ColumnPair{Var1: columns[i], Var2: columns[j]})
		}
	}
	return out
}

// ChiSquarePairs tests each pair whose columns are both present and skips the
// rest. With shortNames the results carry display names from ShortName.
func ChiSquarePairs(ds *Dataset, pairs []ColumnPair, method PValueMethod, shortNames bool) ([]*ChiSquareResult, error) {
	if err := ds.validate("chisquare"); err != nil {
		return nil, err
	}
	var out []*ChiSquareResult
	for _, p := range pairs {
		_, ok1 := ds.ColumnIndex(p.Var1)
		_, ok2 := ds.ColumnIndex(p.Var2)
		if !ok1 || !ok2 {
			continue
		}
		res, err := ChiSquare(ds, p.Var1, p.Var2, method)
		if err != nil {
			return nil, err
		}
		if shortNames {
			res.Short1, res.Short2 = ShortName(p.Var1), ShortName(p.Var2)
		}
		out = append(out, res)
	}
	return out, nil
}
