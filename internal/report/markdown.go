package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// maxMerges caps the dendrogram lines printed in the summary.
const maxMerges = 5

// Markdown renders a compact, sectioned summary of the run.
func (r *Report) Markdown() string {
	res := r.Result
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Source))
	}
	if r.Sheet != "" {
		b.WriteString(fmt.Sprintf("Sheet: %s\n", r.Sheet))
	}
	if res.Dataset != nil {
		b.WriteString(fmt.Sprintf("Rows: %d\n", res.Dataset.Len()))
		b.WriteString(fmt.Sprintf("Columns: %d\n", len(res.Dataset.Columns)))
	}
	b.WriteString(fmt.Sprintf("Seed: %d\n", res.Seed))

	if len(res.Descriptive) > 0 {
		b.WriteString("\n[DESCRIPTIVE STATISTICS]\n")
		for _, s := range res.Descriptive {
			b.WriteString(fmt.Sprintf("- %s: mean %.4g, median %.4g, std %.4g, min %.4g, max %.4g\n",
				safeName(s.Column), s.Mean, s.Median, s.Std, s.Min, s.Max))
		}
	}

	if len(res.TopCorrelations) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range res.TopCorrelations {
			b.WriteString(fmt.Sprintf("- %s ~ %s: rho=%.3f (%s)\n", safeName(p.Var1), safeName(p.Var2), p.Correlation, Strength(p.Correlation)))
		}
	}

	if res.PCA != nil && len(res.PCA.Components) > 0 {
		b.WriteString("\n[PCA]\n")
		for i, c := range res.PCA.Components {
			b.WriteString(fmt.Sprintf("- PC%d: eigenvalue %.4g, explained %.1f%%, cumulative %.1f%%\n",
				i+1, c.Eigenvalue, res.PCA.ExplainedVariance[i]*100, res.PCA.CumulativeVariance[i]*100))
		}
	}

	if len(res.Elbow) > 0 {
		b.WriteString("\n[ELBOW]\n")
		for _, e := range res.Elbow {
			b.WriteString(fmt.Sprintf("- k=%d: inertia %.4g\n", e.K, e.Inertia))
		}
	}

	if res.KMeans != nil {
		b.WriteString("\n[CLUSTERS]\n")
		b.WriteString(fmt.Sprintf("k=%d, inertia %.4g, iterations %d", res.KMeans.K, res.KMeans.Inertia, res.KMeans.Iterations))
		if !res.KMeans.Converged {
			b.WriteString(" (iteration cap reached)")
		}
		b.WriteString("\n")
		for _, p := range res.Profiles {
			b.WriteString(fmt.Sprintf("- Cluster %d (n=%d, %.1f%%)\n", p.Cluster, p.Size, p.Percentage))
			for _, c := range p.Characteristics {
				if c.Count == 0 {
					continue
				}
				b.WriteString(fmt.Sprintf("  • %s: %s (%d)\n", safeName(c.Column), safeVal(c.Mode), c.Count))
			}
		}
	}

	if res.Dendrogram != nil {
		b.WriteString("\n[HIERARCHICAL]\n")
		b.WriteString(fmt.Sprintf("Ward linkage, %d merges over %d observations\n", len(res.Dendrogram.Merges), res.Dendrogram.N))
		start := len(res.Dendrogram.Merges) - maxMerges
		if start < 0 {
			start = 0
		}
		for _, m := range res.Dendrogram.Merges[start:] {
			b.WriteString(fmt.Sprintf("- %d + %d: distance %.4g, size %d\n", m.Cluster1, m.Cluster2, m.Distance, m.Size))
		}
	}

	if res.Embedding != nil {
		b.WriteString("\n[T-SNE]\n")
		b.WriteString(fmt.Sprintf("%d points, perplexity %.4g, %d iterations\n", len(res.Embedding.Y), res.Embedding.Perplexity, res.Embedding.Iterations))
	}

	if len(res.ChiSquare) > 0 {
		b.WriteString("\n[CHI-SQUARE]\n")
		for _, c := range res.ChiSquare {
			a, z := c.Var1, c.Var2
			if c.Short1 != "" {
				a, z = c.Short1, c.Short2
			}
			sig := "not significant"
			if c.Significant {
				sig = "significant"
			}
			b.WriteString(fmt.Sprintf("- %s × %s: chi2=%.3f, df=%d, p≈%.4g, V=%.3f (%s)\n",
				safeName(a), safeName(z), c.ChiSquare, c.DF, c.PValue, c.CramersV, sig))
		}
	}

	if len(r.Notes) > 0 || len(res.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, n := range r.Notes {
			b.WriteString("- " + n + "\n")
		}
		for _, w := range res.Warnings {
			b.WriteString("- " + w.String() + "\n")
		}
	}
	return b.String()
}

// HTML renders the Markdown summary as a standalone HTML page. Bracketed
// section names become second-level headings.
func (r *Report) HTML() []byte {
	lines := strings.Split(r.Markdown(), "\n")
	for i, l := range lines {
		if strings.HasPrefix(l, "[") && strings.HasSuffix(l, "]") {
			lines[i] = "## " + strings.Trim(l, "[]")
		}
	}
	md := []byte("# Multivariate analysis report\n\n" + strings.Join(lines, "\n"))

	p := parser.NewWithExtensions(parser.CommonExtensions)
	title := "Multivariate analysis"
	if r.Source != "" {
		title += ": " + r.Source
	}
	rd := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.CompletePage, Title: title})
	return markdown.ToHTML(md, p, rd)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
