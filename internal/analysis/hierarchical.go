package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Merge records one agglomeration step. Leaves are ids 0..n-1; the cluster
// created by merge m gets id n+m.
type Merge struct {
	Cluster1 int     `json:"cluster1"`
	Cluster2 int     `json:"cluster2"`
	Distance float64 `json:"distance"`
	Size     int     `json:"size"`
}

// Dendrogram is the full merge tree over N observations: exactly N-1 merges.
type Dendrogram struct {
	N      int     `json:"n"`
	Merges []Merge `json:"merges"`
}

type wardCluster struct {
	id       int
	centroid []float64
	size     int
}

// Ward builds the agglomerative merge tree with Ward's linkage
// sqrt(2*n1*n2/(n1+n2)) * ||c1-c2||. It runs in O(n^3) time and is meant for
// up to a few hundred observations. Merge distances are not guaranteed to be
// monotone.
func Ward(data [][]float64) (*Dendrogram, error) {
	n, _, err := shape("hierarchical", data)
	if err != nil {
		return nil, err
	}
	active := make([]wardCluster, n)
	for i, p := range data {
		active[i] = wardCluster{id: i, centroid: clonePoint(p), size: 1}
	}
	den := &Dendrogram{N: n, Merges: make([]Merge, 0, n-1)}
	next := n
	for len(active) > 1 {
		bi, bj, best := 0, 1, math.Inf(1)
		for i := 0; i < len(active); i++ {
			for j := i + 1; j < len(active); j++ {
				if d := wardDistance(active[i], active[j]); d < best {
					bi, bj, best = i, j, d
				}
			}
		}
		a, b := active[bi], active[bj]
		size := a.size + b.size
		centroid := make([]float64, len(a.centroid))
		floats.AddScaled(centroid, float64(a.size), a.centroid)
		floats.AddScaled(centroid, float64(b.size), b.centroid)
		floats.Scale(1/float64(size), centroid)

		den.Merges = append(den.Merges, Merge{Cluster1: a.id, Cluster2: b.id, Distance: best, Size: size})

		// bj > bi: remove the later index first.
		active = append(active[:bj], active[bj+1:]...)
		active = append(active[:bi], active[bi+1:]...)
		active = append(active, wardCluster{id: next, centroid: centroid, size: size})
		next++
	}
	return den, nil
}

func wardDistance(a, b wardCluster) float64 {
	n1, n2 := float64(a.size), float64(b.size)
	return math.Sqrt(2*n1*n2/(n1+n2)) * floats.Distance(a.centroid, b.centroid, 2)
}

// Cut returns flat labels for k clusters by replaying the first N-k merges.
// Labels are numbered by first appearance in observation order.
func (d *Dendrogram) Cut(k int) ([]int, error) {
	if d.N == 0 {
		return nil, emptyInput("dendrogram")
	}
	if k < 1 || k > d.N {
		return nil, invalidParam("dendrogram", "k must be in [1, %d], got %d", d.N, k)
	}
	parent := make([]int, d.N+len(d.Merges))
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for m := 0; m < d.N-k && m < len(d.Merges); m++ {
		id := d.N + m
		parent[find(d.Merges[m].Cluster1)] = id
		parent[find(d.Merges[m].Cluster2)] = id
	}
	labels := make([]int, d.N)
	seen := make(map[int]int)
	for i := range labels {
		root := find(i)
		l, ok := seen[root]
		if !ok {
			l = len(seen)
			seen[root] = l
		}
		labels[i] = l
	}
	return labels, nil
}
