package analysis

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Clustering is a flat k-cluster assignment over the rows of a matrix.
type Clustering struct {
	K           int         `json:"k"`
	Assignments []int       `json:"assignments"`
	Centroids   [][]float64 `json:"centroids"`
	Inertia     float64     `json:"inertia"`
	Iterations  int         `json:"iterations"`
	Converged   bool        `json:"converged"`
}

// Sizes returns the number of points per cluster.
func (c *Clustering) Sizes() []int {
	sizes := make([]int, c.K)
	for _, a := range c.Assignments {
		sizes[a]++
	}
	return sizes
}

// KMeans clusters data into k groups with k-means++ seeding. It stops as soon
// as an assignment pass leaves every label unchanged, or after maxIter passes.
// A cluster left empty by an update is reseeded at a random data point.
func KMeans(data [][]float64, k, maxIter int, rng *rand.Rand) (*Clustering, error) {
	n, _, err := shape("kmeans", data)
	if err != nil {
		return nil, err
	}
	if k < 1 || k > n {
		return nil, invalidParam("kmeans", "k must be in [1, %d], got %d", n, k)
	}
	if maxIter < 1 {
		return nil, invalidParam("kmeans", "max iterations must be positive, got %d", maxIter)
	}

	centroids := seedPlusPlus(data, k, rng)
	var (
		labels, prev []int
		converged    bool
		iter         int
	)
	for iter = 1; iter <= maxIter; iter++ {
		labels = assign(data, centroids)
		if prev != nil && equalLabels(labels, prev) {
			converged = true
			break
		}
		centroids = updateCentroids(data, labels, k, rng)
		prev = labels
	}
	if !converged {
		// The last pass moved the centroids; relabel against them.
		labels = assign(data, centroids)
		iter = maxIter
	}
	return &Clustering{
		K:           k,
		Assignments: labels,
		Centroids:   centroids,
		Inertia:     inertia(data, labels, centroids),
		Iterations:  iter,
		Converged:   converged,
	}, nil
}

// ElbowPoint is the inertia reached for one k.
type ElbowPoint struct {
	K       int     `json:"k"`
	Inertia float64 `json:"inertia"`
}

// Elbow runs a fixed-budget k-means for every k in [2, maxK] and records the
// inertia. maxK is capped at the number of rows. With restarts > 1 the best
// of several seedings is kept for each k.
func Elbow(data [][]float64, maxK, iterations, restarts int, rng *rand.Rand) ([]ElbowPoint, error) {
	n, _, err := shape("elbow", data)
	if err != nil {
		return nil, err
	}
	if maxK < 2 {
		return nil, invalidParam("elbow", "max k must be at least 2, got %d", maxK)
	}
	if iterations < 1 {
		return nil, invalidParam("elbow", "iterations must be positive, got %d", iterations)
	}
	if n < 2 {
		return nil, insufficient("elbow", 2, n)
	}
	if restarts < 1 {
		restarts = 1
	}
	if maxK > n {
		maxK = n
	}
	out := make([]ElbowPoint, 0, maxK-1)
	for k := 2; k <= maxK; k++ {
		best := math.Inf(1)
		for r := 0; r < restarts; r++ {
			centroids := seedPlusPlus(data, k, rng)
			var labels []int
			for it := 0; it < iterations; it++ {
				labels = assign(data, centroids)
				centroids = updateCentroids(data, labels, k, rng)
			}
			if w := inertia(data, labels, centroids); w < best {
				best = w
			}
		}
		out = append(out, ElbowPoint{K: k, Inertia: best})
	}
	return out, nil
}

func seedPlusPlus(data [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(data)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clonePoint(data[rng.Intn(n)]))
	dist := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i, p := range data {
			best := math.Inf(1)
			for _, c := range centroids {
				if d := floats.Distance(p, c, 2); d < best {
					best = d
				}
			}
			dist[i] = best * best
			total += dist[i]
		}
		if total == 0 {
			centroids = append(centroids, clonePoint(data[rng.Intn(n)]))
			continue
		}
		target := rng.Float64() * total
		pick, last := -1, -1
		var cum float64
		for i, d := range dist {
			if d <= 0 {
				continue
			}
			last = i
			cum += d
			if target < cum {
				pick = i
				break
			}
		}
		if pick < 0 {
			pick = last
		}
		centroids = append(centroids, clonePoint(data[pick]))
	}
	return centroids
}

// assign labels each point with its nearest centroid; ties go to the lowest index.
func assign(data, centroids [][]float64) []int {
	labels := make([]int, len(data))
	for i, p := range data {
		best, bestD := 0, math.Inf(1)
		for c, cen := range centroids {
			if d := floats.Distance(p, cen, 2); d < bestD {
				best, bestD = c, d
			}
		}
		labels[i] = best
	}
	return labels
}

func updateCentroids(data [][]float64, labels []int, k int, rng *rand.Rand) [][]float64 {
	dims := len(data[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, dims)
	}
	for i, p := range data {
		floats.Add(sums[labels[i]], p)
		counts[labels[i]]++
	}
	for c := range sums {
		if counts[c] == 0 {
			sums[c] = clonePoint(data[rng.Intn(len(data))])
			continue
		}
		floats.Scale(1/float64(counts[c]), sums[c])
	}
	return sums
}

func inertia(data [][]float64, labels []int, centroids [][]float64) float64 {
	var sum float64
	for i, p := range data {
		d := floats.Distance(p, centroids[labels[i]], 2)
		sum += d * d
	}
	return sum
}

func equalLabels(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func clonePoint(p []float64) []float64 { return append([]float64(nil), p...) }
