package analysis

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTSNEShapeAndCentering(t *testing.T) {
	data := blobs(3, [][]float64{{0, 0, 0}, {6, 6, 6}}, 8, 1)
	opts := TSNEOptions{Perplexity: 5, Iterations: 300, LearningRate: 100}
	emb, err := TSNE(context.Background(), data, opts, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, emb.Y, len(data))

	var mx, my float64
	for _, p := range emb.Y {
		assert.False(t, math.IsNaN(p[0]) || math.IsInf(p[0], 0))
		assert.False(t, math.IsNaN(p[1]) || math.IsInf(p[1], 0))
		mx += p[0]
		my += p[1]
	}
	assert.InDelta(t, 0, mx/float64(len(data)), 1e-9)
	assert.InDelta(t, 0, my/float64(len(data)), 1e-9)
	assert.Equal(t, 300, emb.Iterations)
}

func TestTSNEDeterministicForSeed(t *testing.T) {
	data := blobs(6, squareCorners, 3, 1)
	opts := TSNEOptions{Perplexity: 4, Iterations: 100, LearningRate: 200}
	a, err := TSNE(context.Background(), data, opts, rand.New(rand.NewSource(99)))
	require.NoError(t, err)
	b, err := TSNE(context.Background(), data, opts, rand.New(rand.NewSource(99)))
	require.NoError(t, err)
	assert.Equal(t, a.Y, b.Y)
}

func TestTSNEAffinitiesAreSymmetric(t *testing.T) {
	data := blobs(2, squareCorners, 3, 2)
	p := affinities(data, 5)
	var sum float64
	for i := range p {
		for j := range p[i] {
			assert.Equal(t, p[i][j], p[j][i])
			assert.GreaterOrEqual(t, p[i][j], tsneFloor)
			if i != j {
				sum += p[i][j]
			}
		}
	}
	// each conditional row sums to 1, so the joint matrix sums to ~1
	assert.InDelta(t, 1, sum, 1e-6)
}

func TestTSNECancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := TSNE(ctx, blobs(1, squareCorners, 2, 1), DefaultTSNEOptions(), rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTSNEInvalidOptions(t *testing.T) {
	data := blobs(1, squareCorners, 2, 1)
	rng := rand.New(rand.NewSource(1))
	_, err := TSNE(context.Background(), data, TSNEOptions{Perplexity: 0, Iterations: 10, LearningRate: 1}, rng)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = TSNE(context.Background(), [][]float64{{1}}, DefaultTSNEOptions(), rng)
	assert.ErrorIs(t, err, ErrInsufficientData)
}
