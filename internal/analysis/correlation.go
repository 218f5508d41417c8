package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TieMode selects how Spearman ranks tied values.
type TieMode string

const (
	// TiesPositional ranks by 1-based position in a stable ascending sort, so
	// tied values get distinct ranks in input order.
	TiesPositional TieMode = "positional"
	// TiesAverage gives tied values the mean of their positions and computes
	// Pearson's r over the ranks (tie-corrected Spearman).
	TiesAverage TieMode = "average"
)

// ParseTieMode accepts "", "positional" or "average".
func ParseTieMode(s string) (TieMode, error) {
	switch TieMode(s) {
	case "", TiesPositional:
		return TiesPositional, nil
	case TiesAverage:
		return TiesAverage, nil
	}
	return "", invalidParam("spearman", "unknown ties mode %q", s)
}

// Spearman returns the rank correlation of two equal-length sequences, clamped
// to [-1, 1].
func Spearman(x, y []float64, ties TieMode) (float64, error) {
	if len(x) != len(y) {
		return 0, &DimensionMismatchError{Stage: "spearman", Row: 0, Got: len(y), Want: len(x)}
	}
	n := len(x)
	if n == 0 {
		return 0, emptyInput("spearman")
	}
	if n < 2 {
		return 0, insufficient("spearman", 2, n)
	}
	var r float64
	switch ties {
	case TiesAverage:
		rx, ry := averageRanks(x), averageRanks(y)
		r = stat.Correlation(rx, ry, nil)
		if math.IsNaN(r) {
			// A constant sequence has no rank variance.
			r = 0
		}
	default:
		rx, ry := positionalRanks(x), positionalRanks(y)
		var sum float64
		for i := range rx {
			d := rx[i] - ry[i]
			sum += d * d
		}
		fn := float64(n)
		r = 1 - (6*sum)/(fn*(fn*fn-1))
	}
	return math.Max(-1, math.Min(1, r)), nil
}

func sortedIndex(v []float64) []int {
	idx := make([]int, len(v))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return v[idx[a]] < v[idx[b]] })
	return idx
}

func positionalRanks(v []float64) []float64 {
	ranks := make([]float64, len(v))
	for pos, i := range sortedIndex(v) {
		ranks[i] = float64(pos + 1)
	}
	return ranks
}

func averageRanks(v []float64) []float64 {
	idx := sortedIndex(v)
	ranks := make([]float64, len(v))
	for start := 0; start < len(idx); {
		end := start + 1
		for end < len(idx) && v[idx[end]] == v[idx[start]] {
			end++
		}
		// positions start..end-1 are tied; 1-based mean rank
		avg := float64(start+end+1) / 2
		for p := start; p < end; p++ {
			ranks[idx[p]] = avg
		}
		start = end
	}
	return ranks
}

// CorrelationMatrix is the symmetric Spearman matrix over the encoded columns.
type CorrelationMatrix struct {
	Columns []string
	Values  [][]float64
}

// Pair is one unordered column pair with its correlation.
type Pair struct {
	Var1        string  `json:"var1"`
	Var2        string  `json:"var2"`
	Correlation float64 `json:"correlation"`
}

// Correlations computes the full Spearman matrix over the columns of m. The
// diagonal is fixed at 1 and only the upper triangle is computed.
func Correlations(columns []string, m [][]float64, ties TieMode) (*CorrelationMatrix, error) {
	n, d, err := shape("correlation", m)
	if err != nil {
		return nil, err
	}
	if len(columns) != d {
		return nil, fmt.Errorf("correlation: %w: %d column names for %d columns", ErrDimensionMismatch, len(columns), d)
	}
	if n < 2 {
		return nil, insufficient("correlation", 2, n)
	}
	cols := make([][]float64, d)
	for j := range cols {
		cols[j] = column(m, j)
	}
	vals := make([][]float64, d)
	for i := range vals {
		vals[i] = make([]float64, d)
		vals[i][i] = 1
	}
	for i := 0; i < d; i++ {
		for j := i + 1; j < d; j++ {
			r, err := Spearman(cols[i], cols[j], ties)
			if err != nil {
				return nil, err
			}
			vals[i][j], vals[j][i] = r, r
		}
	}
	return &CorrelationMatrix{Columns: append([]string(nil), columns...), Values: vals}, nil
}

// Get returns the correlation between two named columns.
func (c *CorrelationMatrix) Get(a, b string) (float64, error) {
	i, j := -1, -1
	for k, name := range c.Columns {
		if name == a {
			i = k
		}
		if name == b {
			j = k
		}
	}
	if i < 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownColumn, a)
	}
	if j < 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownColumn, b)
	}
	return c.Values[i][j], nil
}

// Pairs returns every unordered pair i<j in column order.
func (c *CorrelationMatrix) Pairs() []Pair {
	var out []Pair
	for i := range c.Columns {
		for j := i + 1; j < len(c.Columns); j++ {
			out = append(out, Pair{Var1: c.Columns[i], Var2: c.Columns[j], Correlation: c.Values[i][j]})
		}
	}
	return out
}

// Top returns the k pairs with the largest absolute correlation. Equal
// magnitudes keep column order. k <= 0 returns all pairs.
func (c *CorrelationMatrix) Top(k int) []Pair {
	pairs := c.Pairs()
	sort.SliceStable(pairs, func(a, b int) bool {
		return math.Abs(pairs[a].Correlation) > math.Abs(pairs[b].Correlation)
	})
	if k > 0 && k < len(pairs) {
		pairs = pairs[:k]
	}
	return pairs
}
