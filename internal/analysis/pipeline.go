package analysis

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// Options configures one pipeline run. The zero value is not usable; start
// from DefaultOptions.
type Options struct {
	Clusters        int
	MaxK            int
	KMeansMaxIter   int
	ElbowIterations int
	ElbowRestarts   int

	PCA  PCAOptions
	TSNE TSNEOptions

	SkipTSNE           bool
	SkipHierarchical   bool
	HierarchicalMaxObs int

	Ties            TieMode
	PValue          PValueMethod
	TopCorrelations int
	ProfileColumns  []string
	ChiSquarePairs  []ColumnPair
	ShortNames      bool

	// Seed drives every randomized stage. Zero picks a time-based seed, which
	// is reported back in Result.Seed.
	Seed int64

	Logger zerolog.Logger
}

// DefaultOptions returns the reference settings: k=4, elbow up to 10,
// 10 PCA components, t-SNE perplexity 30 over 1000 iterations.
func DefaultOptions() Options {
	return Options{
		Clusters:           4,
		MaxK:               10,
		KMeansMaxIter:      100,
		ElbowIterations:    50,
		ElbowRestarts:      1,
		PCA:                DefaultPCAOptions(),
		TSNE:               DefaultTSNEOptions(),
		HierarchicalMaxObs: 500,
		Ties:               TiesPositional,
		PValue:             PValueTable,
		TopCorrelations:    15,
		ShortNames:         true,
		Logger:             zerolog.Nop(),
	}
}

// Result carries every stage output of one run.
type Result struct {
	Dataset         *Dataset
	Encoded         *Encoded
	Normalized      *Normalized
	Correlations    *CorrelationMatrix
	TopCorrelations []Pair
	PCA             *PCAResult
	Elbow           []ElbowPoint
	KMeans          *Clustering
	Embedding       *Embedding
	Dendrogram      *Dendrogram
	ChiSquare       []*ChiSquareResult
	Profiles        []ClusterProfile
	Descriptive     []ColumnStats
	Warnings        []Warning

	Seed     int64
	Started  time.Time
	Duration time.Duration
}

// Pipeline runs the stages in a fixed order over one dataset. A Pipeline
// owns its random source and must not be shared between goroutines.
type Pipeline struct {
	opts Options
	rng  *rand.Rand
	seed int64
	log  zerolog.Logger
}

// NewPipeline validates opts and seeds the random source.
func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Clusters < 1 {
		return nil, invalidParam("pipeline", "clusters must be positive, got %d", opts.Clusters)
	}
	if opts.MaxK < 2 {
		return nil, invalidParam("pipeline", "max k must be at least 2, got %d", opts.MaxK)
	}
	if opts.KMeansMaxIter < 1 || opts.ElbowIterations < 1 {
		return nil, invalidParam("pipeline", "k-means iteration budgets must be positive")
	}
	if opts.PCA.Components < 1 || opts.PCA.Iterations < 1 {
		return nil, invalidParam("pipeline", "pca components and iterations must be positive")
	}
	if !opts.SkipTSNE {
		if !(opts.TSNE.Perplexity > 0) || opts.TSNE.Iterations < 1 || !(opts.TSNE.LearningRate > 0) {
			return nil, invalidParam("pipeline", "t-SNE perplexity, iterations and learning rate must be positive")
		}
	}
	if _, err := ParseTieMode(string(opts.Ties)); err != nil {
		return nil, err
	}
	if _, err := ParsePValueMethod(string(opts.PValue)); err != nil {
		return nil, err
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Pipeline{
		opts: opts,
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
		log:  opts.Logger.With().Str("component", "pipeline").Logger(),
	}, nil
}

// Seed returns the seed actually in use.
func (p *Pipeline) Seed() int64 { return p.seed }

// Run executes encode, correlation, PCA, elbow, k-means, t-SNE, hierarchical,
// chi-square, profiles and descriptive statistics in that order. The context
// is checked between stages; a stage never yields internally except t-SNE.
// The first fatal error aborts the run.
func (p *Pipeline) Run(ctx context.Context, ds *Dataset) (*Result, error) {
	if err := ds.validate("pipeline"); err != nil {
		return nil, err
	}
	res := &Result{Dataset: ds, Seed: p.seed, Started: time.Now()}
	p.log.Info().Str("dataset", ds.Name).Int("rows", ds.Len()).Int("columns", len(ds.Columns)).Int64("seed", p.seed).Msg("analysis started")

	steps := []struct {
		name string
		run  func() error
	}{
		{"encode", func() error { return p.encode(res) }},
		{"correlation", func() error { return p.correlate(res) }},
		{"pca", func() error { return p.pca(res) }},
		{"elbow", func() error { return p.elbow(res) }},
		{"kmeans", func() error { return p.kmeans(res) }},
		{"tsne", func() error { return p.tsne(ctx, res) }},
		{"hierarchical", func() error { return p.hierarchical(res) }},
		{"chisquare", func() error { return p.chiSquare(res) }},
		{"profiles", func() error { return p.profiles(res) }},
		{"descriptive", func() error { return p.describe(res) }},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		start := time.Now()
		if err := s.run(); err != nil {
			p.log.Error().Err(err).Str("stage", s.name).Msg("stage failed")
			return nil, err
		}
		p.log.Debug().Str("stage", s.name).Dur("took", time.Since(start)).Msg("stage done")
	}
	res.Duration = time.Since(res.Started)
	p.log.Info().Dur("took", res.Duration).Int("warnings", len(res.Warnings)).Msg("analysis finished")
	return res, nil
}

func (p *Pipeline) warn(res *Result, stage, format string, args ...any) {
	w := Warning{Stage: stage, Message: fmt.Sprintf(format, args...)}
	res.Warnings = append(res.Warnings, w)
	p.log.Warn().Str("stage", stage).Msg(w.Message)
}

func (p *Pipeline) encode(res *Result) error {
	enc, err := Encode(res.Dataset)
	if err != nil {
		return err
	}
	norm, err := Normalize(enc.Matrix)
	if err != nil {
		return err
	}
	for _, j := range norm.Degenerate {
		p.warn(res, "normalize", "column %q is constant; normalized to 0", enc.Table.Columns[j])
	}
	res.Encoded, res.Normalized = enc, norm
	return nil
}

func (p *Pipeline) correlate(res *Result) error {
	cm, err := Correlations(res.Encoded.Table.Columns, res.Encoded.Matrix, p.opts.Ties)
	if err != nil {
		return err
	}
	res.Correlations = cm
	res.TopCorrelations = cm.Top(p.opts.TopCorrelations)
	return nil
}

func (p *Pipeline) pca(res *Result) error {
	r, err := PCA(res.Normalized.Data, p.opts.PCA)
	if err != nil {
		return err
	}
	res.PCA = r
	return nil
}

func (p *Pipeline) elbow(res *Result) error {
	e, err := Elbow(res.Normalized.Data, p.opts.MaxK, p.opts.ElbowIterations, p.opts.ElbowRestarts, p.rng)
	if err != nil {
		return err
	}
	res.Elbow = e
	return nil
}

func (p *Pipeline) kmeans(res *Result) error {
	k := p.opts.Clusters
	if n := res.Dataset.Len(); k > n {
		p.warn(res, "kmeans", "requested %d clusters for %d observations; using %d", k, n, n)
		k = n
	}
	c, err := KMeans(res.Normalized.Data, k, p.opts.KMeansMaxIter, p.rng)
	if err != nil {
		return err
	}
	if !c.Converged {
		p.log.Debug().Int("iterations", c.Iterations).Msg("k-means hit the iteration cap")
	}
	res.KMeans = c
	return nil
}

func (p *Pipeline) tsne(ctx context.Context, res *Result) error {
	if p.opts.SkipTSNE {
		return nil
	}
	emb, err := TSNE(ctx, res.Normalized.Data, p.opts.TSNE, p.rng)
	if err != nil {
		return err
	}
	res.Embedding = emb
	return nil
}

func (p *Pipeline) hierarchical(res *Result) error {
	if p.opts.SkipHierarchical {
		return nil
	}
	if limit := p.opts.HierarchicalMaxObs; limit > 0 && res.Dataset.Len() > limit {
		p.warn(res, "hierarchical", "skipped: %d observations exceed the limit of %d", res.Dataset.Len(), limit)
		return nil
	}
	d, err := Ward(res.Normalized.Data)
	if err != nil {
		return err
	}
	res.Dendrogram = d
	return nil
}

func (p *Pipeline) chiSquare(res *Result) error {
	pairs := p.opts.ChiSquarePairs
	if len(pairs) == 0 {
		pairs = AllPairs(res.Dataset.Columns)
	}
	for _, pr := range pairs {
		for _, c := range []string{pr.Var1, pr.Var2} {
			if _, ok := res.Dataset.ColumnIndex(c); !ok {
				p.warn(res, "chisquare", "pair skipped: column %q not found", c)
			}
		}
	}
	r, err := ChiSquarePairs(res.Dataset, pairs, p.opts.PValue, p.opts.ShortNames)
	if err != nil {
		return err
	}
	res.ChiSquare = r
	return nil
}

func (p *Pipeline) profiles(res *Result) error {
	var cols []string
	if len(p.opts.ProfileColumns) > 0 {
		cols = make([]string, 0, len(p.opts.ProfileColumns))
	}
	for _, c := range p.opts.ProfileColumns {
		if _, ok := res.Dataset.ColumnIndex(c); !ok {
			p.warn(res, "profiles", "column %q not found", c)
			continue
		}
		cols = append(cols, c)
	}
	// nil only when nothing was configured
	pr, err := Profiles(res.Dataset, res.KMeans.Assignments, res.KMeans.K, cols)
	if err != nil {
		return err
	}
	res.Profiles = pr
	return nil
}

func (p *Pipeline) describe(res *Result) error {
	d, err := Describe(res.Encoded.Table.Columns, res.Encoded.Matrix)
	if err != nil {
		return err
	}
	res.Descriptive = d
	return nil
}
