package analysis

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"
)

// ColumnStats are descriptive statistics of one encoded column.
type ColumnStats struct {
	Column string  `json:"column"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Describe computes mean, median, population standard deviation, min and max
// for every column of an encoded matrix.
func Describe(columns []string, m [][]float64) ([]ColumnStats, error) {
	_, d, err := shape("describe", m)
	if err != nil {
		return nil, err
	}
	if len(columns) != d {
		return nil, fmt.Errorf("describe: %w: %d column names for %d columns", ErrDimensionMismatch, len(columns), d)
	}
	out := make([]ColumnStats, d)
	for j := 0; j < d; j++ {
		s, err := describeColumn(stats.Float64Data(column(m, j)))
		if err != nil {
			return nil, fmt.Errorf("describe %q: %w", columns[j], err)
		}
		s.Column = columns[j]
		out[j] = s
	}
	return out, nil
}

func describeColumn(data stats.Float64Data) (ColumnStats, error) {
	var s ColumnStats
	var err error
	if s.Mean, err = stats.Mean(data); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, err
	}
	if s.Std, err = stats.StandardDeviationPopulation(data); err != nil {
		return s, err
	}
	if s.Min, err = stats.Min(data); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(data); err != nil {
		return s, err
	}
	return s, nil
}

// Frequency is the count of one raw value in a column.
type Frequency struct {
	Value      string  `json:"value"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Frequencies counts the raw values of a column, most frequent first. Equal
// counts keep first-seen order.
func Frequencies(ds *Dataset, name string) ([]Frequency, error) {
	if err := ds.validate("frequencies"); err != nil {
		return nil, err
	}
	values, err := ds.Column(name)
	if err != nil {
		return nil, fmt.Errorf("frequencies: %w", err)
	}
	pos := map[string]int{}
	var out []Frequency
	for _, v := range values {
		i, ok := pos[v]
		if !ok {
			i = len(out)
			pos[v] = i
			out = append(out, Frequency{Value: v})
		}
		out[i].Count++
	}
	for i := range out {
		out[i].Percentage = float64(out[i].Count) / float64(len(values)) * 100
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Count > out[b].Count })
	return out, nil
}
