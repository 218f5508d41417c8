package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/mvscope/internal/report"
)

var (
	anaFlags           pipelineFlags
	anaOutputPath      string
	anaJSONPath        string
	anaHTMLPath        string
	anaClustersCSV     string
	anaCorrelationsCSV string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Run the full multivariate analysis over a CSV/TSV/XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := anaFlags.loadProject()
		if err != nil {
			return err
		}
		rep, err := analyzeFile(cmd, args[0], &anaFlags, p)
		if err != nil {
			return err
		}
		for _, w := range rep.Result.Warnings {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %s\n", w)
		}

		// Decide where to write: --output path, or attach to project, or stdout
		written := false
		if anaOutputPath != "" {
			if err := os.WriteFile(anaOutputPath, []byte(rep.Markdown()), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote analysis to %s\n", anaOutputPath)
			written = true
		}
		if err := writeExports(rep); err != nil {
			return err
		}
		if p != nil {
			run, err := storeRun(p, rep)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Stored run %s in project '%s' (seed %d)\n", run.ID, p.Name, run.Seed)
			written = true
		}
		if !written {
			fmt.Println(rep.Markdown())
		}
		return nil
	},
}

func writeExports(rep *report.Report) error {
	if anaJSONPath != "" {
		b, err := rep.JSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(anaJSONPath, b, 0o644); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
		fmt.Printf("✓ Wrote JSON report to %s\n", anaJSONPath)
	}
	if anaHTMLPath != "" {
		if err := os.WriteFile(anaHTMLPath, rep.HTML(), 0o644); err != nil {
			return fmt.Errorf("write html: %w", err)
		}
		fmt.Printf("✓ Wrote HTML report to %s\n", anaHTMLPath)
	}
	if anaClustersCSV != "" {
		if err := writeCSV(anaClustersCSV, rep.WriteClustersCSV); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote cluster assignments to %s\n", anaClustersCSV)
	}
	if anaCorrelationsCSV != "" {
		if err := writeCSV(anaCorrelationsCSV, rep.WriteCorrelationsCSV); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote correlations to %s\n", anaCorrelationsCSV)
	}
	return nil
}

func writeCSV(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaFlags.register(analyzeCmd.Flags())
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the analysis (Markdown)")
	analyzeCmd.Flags().StringVar(&anaJSONPath, "json", "", "optional path to write the JSON report")
	analyzeCmd.Flags().StringVar(&anaHTMLPath, "html", "", "optional path to write the HTML report")
	analyzeCmd.Flags().StringVar(&anaClustersCSV, "clusters-csv", "", "optional path to write rows with their cluster label")
	analyzeCmd.Flags().StringVar(&anaCorrelationsCSV, "correlations-csv", "", "optional path to write all correlation pairs")
}
