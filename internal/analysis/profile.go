package analysis

import "fmt"

// Characteristic is the most frequent raw value of a column inside a cluster.
type Characteristic struct {
	Column string `json:"column"`
	Mode   string `json:"mode"`
	Count  int    `json:"count"`
}

// ClusterProfile summarizes one cluster against the raw data.
type ClusterProfile struct {
	Cluster         int              `json:"cluster"`
	Size            int              `json:"size"`
	Percentage      float64          `json:"percentage"`
	Characteristics []Characteristic `json:"characteristics"`
}

// Profiles partitions the raw records by cluster label and reports the size,
// share and per-column mode of each cluster. Mode ties go to the value seen
// first. A nil columns list profiles every column; an empty non-nil list
// reports sizes only.
func Profiles(ds *Dataset, labels []int, k int, columns []string) ([]ClusterProfile, error) {
	if err := ds.validate("profile"); err != nil {
		return nil, err
	}
	if len(labels) != ds.Len() {
		return nil, fmt.Errorf("profile: %w: %d labels for %d records", ErrDimensionMismatch, len(labels), ds.Len())
	}
	if k < 1 {
		return nil, invalidParam("profile", "k must be positive, got %d", k)
	}
	if columns == nil {
		columns = ds.Columns
	}
	idx := make([]int, len(columns))
	for i, c := range columns {
		j, ok := ds.ColumnIndex(c)
		if !ok {
			return nil, fmt.Errorf("profile: %w: %q", ErrUnknownColumn, c)
		}
		idx[i] = j
	}
	members := make([][]int, k)
	for i, l := range labels {
		if l < 0 || l >= k {
			return nil, invalidParam("profile", "label %d of record %d outside [0, %d)", l, i, k)
		}
		members[l] = append(members[l], i)
	}

	out := make([]ClusterProfile, k)
	total := float64(ds.Len())
	for c := 0; c < k; c++ {
		p := ClusterProfile{
			Cluster:         c,
			Size:            len(members[c]),
			Percentage:      float64(len(members[c])) / total * 100,
			Characteristics: make([]Characteristic, len(columns)),
		}
		for ci, j := range idx {
			values := make([]string, len(members[c]))
			for m, row := range members[c] {
				values[m] = ds.Rows[row][j]
			}
			mode, count := Mode(values)
			p.Characteristics[ci] = Characteristic{Column: columns[ci], Mode: mode, Count: count}
		}
		out[c] = p
	}
	return out, nil
}

// Mode returns the most frequent value and its count. Ties go to the value
// that appears first; an empty slice yields ("", 0).
func Mode(values []string) (string, int) {
	counts := make(map[string]int, len(values))
	var (
		best  string
		bestN int
	)
	for _, v := range values {
		counts[v]++
	}
	for _, v := range values {
		if n := counts[v]; n > bestN {
			best, bestN = v, n
		}
	}
	return best, bestN
}
