package cmd

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/mvscope/internal/analysis"
	"github.com/KaramelBytes/mvscope/internal/dataset"
	"github.com/KaramelBytes/mvscope/internal/project"
	"github.com/KaramelBytes/mvscope/internal/report"
)

// Artifact file names written into project runs and next to --output.
const (
	artifactMarkdown     = "report.md"
	artifactJSON         = "report.json"
	artifactHTML         = "report.html"
	artifactClusters     = "clusters.csv"
	artifactCorrelations = "correlations.csv"
)

// pipelineFlags are the analysis overrides shared by analyze and
// analyze-batch. Only flags the user changed override config values.
type pipelineFlags struct {
	clusters    int
	maxK        int
	components  int
	perplexity  float64
	tsneIter    int
	noTSNE      bool
	noHier      bool
	seed        int64
	ties        string
	pvalue      string
	top         int
	profileCols []string
	delimiter   string
	maxRows     int
	sheetName   string
	sheetIndex  int
	timeout     time.Duration
	project     string
	flags       *pflag.FlagSet
}

func (pf *pipelineFlags) register(fs *pflag.FlagSet) {
	pf.flags = fs
	fs.StringVarP(&pf.project, "project", "p", "", "project name to store the run in")
	fs.IntVar(&pf.clusters, "clusters", 4, "number of k-means clusters")
	fs.IntVar(&pf.maxK, "max-k", 10, "largest k evaluated by the elbow sweep")
	fs.IntVar(&pf.components, "components", 10, "number of principal components")
	fs.Float64Var(&pf.perplexity, "perplexity", 30, "t-SNE perplexity")
	fs.IntVar(&pf.tsneIter, "tsne-iterations", 1000, "t-SNE optimization steps")
	fs.BoolVar(&pf.noTSNE, "no-tsne", false, "skip the t-SNE embedding")
	fs.BoolVar(&pf.noHier, "no-hierarchical", false, "skip Ward hierarchical clustering")
	fs.Int64Var(&pf.seed, "seed", 0, "random seed (0 = time based)")
	fs.StringVar(&pf.ties, "ties", "positional", "Spearman tie handling: positional | average")
	fs.StringVar(&pf.pvalue, "pvalue", "table", "chi-square p-value: table | exact")
	fs.IntVar(&pf.top, "top", 15, "number of top correlations in the summary (0 = all)")
	fs.StringSliceVar(&pf.profileCols, "profile-columns", nil, "columns summarized per cluster (default all)")
	fs.StringVar(&pf.delimiter, "delimiter", "", "CSV delimiter: auto | comma | semicolon | tab | pipe")
	fs.IntVar(&pf.maxRows, "max-rows", 0, "maximum data rows to read (0 = unlimited)")
	fs.StringVar(&pf.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	fs.IntVar(&pf.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	fs.DurationVar(&pf.timeout, "timeout", 0, "abort the analysis after this long (0 = no limit)")
}

// loaderOptions merges config and flags into dataset loader options.
func (pf *pipelineFlags) loaderOptions() (dataset.Options, error) {
	c, err := currentConfig()
	if err != nil {
		return dataset.Options{}, err
	}
	delim := c.Delimiter
	if pf.flags.Changed("delimiter") {
		delim = pf.delimiter
	}
	d, err := dataset.ParseDelimiter(delim)
	if err != nil {
		return dataset.Options{}, err
	}
	opt := dataset.Options{Delimiter: d, MaxRows: c.MaxRows, SheetName: pf.sheetName, SheetIndex: pf.sheetIndex}
	if pf.flags.Changed("max-rows") {
		opt.MaxRows = pf.maxRows
	}
	return opt, nil
}

// analysisOptions layers config, project overrides and changed flags.
func (pf *pipelineFlags) analysisOptions(p *project.Project) (analysis.Options, error) {
	c, err := currentConfig()
	if err != nil {
		return analysis.Options{}, err
	}
	opts, err := c.AnalysisOptions()
	if err != nil {
		return opts, err
	}
	if p != nil {
		p.Config.Apply(&opts)
	}
	f := pf.flags
	if f.Changed("clusters") {
		opts.Clusters = pf.clusters
	}
	if f.Changed("max-k") {
		opts.MaxK = pf.maxK
	}
	if f.Changed("components") {
		opts.PCA.Components = pf.components
	}
	if f.Changed("perplexity") {
		opts.TSNE.Perplexity = pf.perplexity
	}
	if f.Changed("tsne-iterations") {
		opts.TSNE.Iterations = pf.tsneIter
	}
	if pf.noTSNE {
		opts.SkipTSNE = true
	}
	if pf.noHier {
		opts.SkipHierarchical = true
	}
	if f.Changed("seed") {
		opts.Seed = pf.seed
	}
	if f.Changed("ties") {
		if opts.Ties, err = analysis.ParseTieMode(pf.ties); err != nil {
			return opts, fmt.Errorf("--ties: %w", err)
		}
	}
	if f.Changed("pvalue") {
		if opts.PValue, err = analysis.ParsePValueMethod(pf.pvalue); err != nil {
			return opts, fmt.Errorf("--pvalue: %w", err)
		}
	}
	if f.Changed("top") {
		opts.TopCorrelations = pf.top
	}
	if f.Changed("profile-columns") {
		opts.ProfileColumns = pf.profileCols
	}
	opts.Logger = log.Logger
	return opts, nil
}

// loadProject resolves --project, or returns nil when it is not set.
func (pf *pipelineFlags) loadProject() (*project.Project, error) {
	if pf.project == "" {
		return nil, nil
	}
	return loadNamedProject(pf.project)
}

// analyzeFile loads one file and runs the pipeline over it.
func analyzeFile(cmd *cobra.Command, path string, pf *pipelineFlags, p *project.Project) (*report.Report, error) {
	lopt, err := pf.loaderOptions()
	if err != nil {
		return nil, err
	}
	opts, err := pf.analysisOptions(p)
	if err != nil {
		return nil, err
	}
	tab, err := dataset.LoadFile(path, lopt)
	if err != nil {
		return nil, err
	}
	pipe, err := analysis.NewPipeline(opts)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if pf.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pf.timeout)
		defer cancel()
	}
	res, err := pipe.Run(ctx, tab.Dataset)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", filepath.Base(path), err)
	}
	rep := report.New(res, filepath.Base(path), tab.Notes())
	rep.Sheet = tab.Sheet
	return rep, nil
}

// renderArtifacts produces every export of a report keyed by file name.
func renderArtifacts(rep *report.Report) (map[string][]byte, error) {
	out := map[string][]byte{
		artifactMarkdown: []byte(rep.Markdown()),
		artifactHTML:     rep.HTML(),
	}
	js, err := rep.JSON()
	if err != nil {
		return nil, err
	}
	out[artifactJSON] = js
	var buf bytes.Buffer
	if err := rep.WriteClustersCSV(&buf); err != nil {
		return nil, err
	}
	out[artifactClusters] = append([]byte(nil), buf.Bytes()...)
	buf.Reset()
	if err := rep.WriteCorrelationsCSV(&buf); err != nil {
		return nil, err
	}
	out[artifactCorrelations] = append([]byte(nil), buf.Bytes()...)
	return out, nil
}

// storeRun attaches a report and its artifacts to the project and saves it.
func storeRun(p *project.Project, rep *report.Report) (*project.Run, error) {
	arts, err := renderArtifacts(rep)
	if err != nil {
		return nil, err
	}
	run, err := p.AddRun(rep.Source, rep.Sheet, rep.Result, arts)
	if err != nil {
		return nil, err
	}
	if err := p.Save(); err != nil {
		return nil, err
	}
	return run, nil
}
