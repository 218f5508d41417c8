package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/KaramelBytes/mvscope/internal/analysis"
	"github.com/KaramelBytes/mvscope/internal/utils"
)

// Report renders one pipeline result for people and other tools.
type Report struct {
	Result      *analysis.Result
	Source      string
	Sheet       string
	Notes       []string
	GeneratedAt time.Time
}

// New wraps a result. notes are loader remarks shown under [NOTES].
func New(res *analysis.Result, source string, notes []string) *Report {
	return &Report{Result: res, Source: source, Notes: notes, GeneratedAt: time.Now()}
}

// Strength labels a correlation magnitude.
func Strength(r float64) string {
	switch a := math.Abs(r); {
	case a > 0.5:
		return "strong"
	case a > 0.3:
		return "moderate"
	}
	return "weak"
}

// Export is the JSON document written by --json.
type Export struct {
	Metadata     Metadata                    `json:"metadata"`
	Correlations []analysis.Pair             `json:"correlations"`
	PCA          *PCAExport                  `json:"pca,omitempty"`
	Elbow        []analysis.ElbowPoint       `json:"elbow,omitempty"`
	Clustering   *ClusteringExport           `json:"clustering,omitempty"`
	Hierarchical *analysis.Dendrogram        `json:"hierarchical,omitempty"`
	TSNE         *analysis.Embedding         `json:"tsne,omitempty"`
	ChiSquare    []*analysis.ChiSquareResult `json:"chiSquare,omitempty"`
	Descriptive  []analysis.ColumnStats      `json:"descriptive,omitempty"`
	Warnings     []analysis.Warning          `json:"warnings,omitempty"`
}

// Metadata describes the analyzed source and the run that produced the report.
type Metadata struct {
	Source         string    `json:"source"`
	Sheet          string    `json:"sheet,omitempty"`
	Date           time.Time `json:"date"`
	TotalResponses int       `json:"totalResponses"`
	TotalVariables int       `json:"totalVariables"`
	Seed           int64     `json:"seed"`
	DurationMs     int64     `json:"durationMs"`
}

// PCAExport holds the eigen decomposition summary and per-component loadings.
type PCAExport struct {
	Eigenvalues        []float64   `json:"eigenvalues"`
	ExplainedVariance  []float64   `json:"explainedVariance"`
	CumulativeVariance []float64   `json:"cumulativeVariance"`
	Loadings           [][]float64 `json:"loadings"`
}

// ClusteringExport is the k-means outcome with per-record cluster labels.
type ClusteringExport struct {
	K                   int                       `json:"k"`
	Inertia             float64                   `json:"inertia"`
	Converged           bool                      `json:"converged"`
	ClusterDistribution []analysis.ClusterProfile `json:"clusterDistribution"`
	Clusters            []int                     `json:"clusters"`
}

// Export builds the JSON document. All correlation pairs are included,
// strongest first.
func (r *Report) Export() *Export {
	res := r.Result
	out := &Export{
		Metadata: Metadata{
			Source:     r.Source,
			Sheet:      r.Sheet,
			Date:       r.GeneratedAt,
			Seed:       res.Seed,
			DurationMs: res.Duration.Milliseconds(),
		},
		Elbow:        res.Elbow,
		Hierarchical: res.Dendrogram,
		TSNE:         res.Embedding,
		ChiSquare:    res.ChiSquare,
		Descriptive:  res.Descriptive,
		Warnings:     res.Warnings,
	}
	if res.Dataset != nil {
		out.Metadata.TotalResponses = res.Dataset.Len()
		out.Metadata.TotalVariables = len(res.Dataset.Columns)
	}
	if res.Correlations != nil {
		out.Correlations = res.Correlations.Top(0)
	}
	if res.PCA != nil {
		p := &PCAExport{
			ExplainedVariance:  res.PCA.ExplainedVariance,
			CumulativeVariance: res.PCA.CumulativeVariance,
			Loadings:           res.PCA.Loadings(),
		}
		for _, c := range res.PCA.Components {
			p.Eigenvalues = append(p.Eigenvalues, c.Eigenvalue)
		}
		out.PCA = p
	}
	if res.KMeans != nil {
		out.Clustering = &ClusteringExport{
			K:                   res.KMeans.K,
			Inertia:             res.KMeans.Inertia,
			Converged:           res.KMeans.Converged,
			ClusterDistribution: res.Profiles,
			Clusters:            res.KMeans.Assignments,
		}
	}
	return out
}

// JSON returns the indented JSON export.
func (r *Report) JSON() ([]byte, error) {
	return utils.PrettyJSON(r.Export())
}

// WriteClustersCSV writes the raw columns plus a trailing Cluster column.
func (r *Report) WriteClustersCSV(w io.Writer) error {
	res := r.Result
	if res.KMeans == nil || res.Dataset == nil {
		return fmt.Errorf("clusters csv: no clustering in result")
	}
	cw := csv.NewWriter(w)
	header := append(append([]string(nil), res.Dataset.Columns...), "Cluster")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("clusters csv: %w", err)
	}
	for i, row := range res.Dataset.Rows {
		rec := append(append([]string(nil), row...), strconv.Itoa(res.KMeans.Assignments[i]))
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("clusters csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCorrelationsCSV writes every column pair with its Spearman
// coefficient and a strength label, strongest first.
func (r *Report) WriteCorrelationsCSV(w io.Writer) error {
	if r.Result.Correlations == nil {
		return fmt.Errorf("correlations csv: no correlations in result")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"var1", "var2", "correlation", "strength"}); err != nil {
		return fmt.Errorf("correlations csv: %w", err)
	}
	for _, p := range r.Result.Correlations.Top(0) {
		rec := []string{p.Var1, p.Var2, strconv.FormatFloat(p.Correlation, 'f', -1, 64), Strength(p.Correlation)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("correlations csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
