package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var (
	abFlags     pipelineFlags
	abOutputDir string
	abQuiet     bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/TSV/XLSX files with progress and optional project storage",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		p, err := abFlags.loadProject()
		if err != nil {
			return err
		}
		if abOutputDir != "" {
			if err := os.MkdirAll(abOutputDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}

		total := len(files)
		for i, path := range files {
			if !abQuiet {
				fmt.Printf("[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			rep, err := analyzeFile(cmd, path, &abFlags, p)
			if err != nil {
				return err
			}
			if !abQuiet {
				for _, w := range rep.Result.Warnings {
					fmt.Fprintf(os.Stderr, "⚠ Warning: %s\n", w)
				}
			}

			written := false
			if abOutputDir != "" {
				outFile := uniquePath(abOutputDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), ".md")
				if err := os.WriteFile(outFile, []byte(rep.Markdown()), 0o644); err != nil {
					return fmt.Errorf("write summary: %w", err)
				}
				if !abQuiet {
					fmt.Printf("✓ Wrote analysis to %s\n", outFile)
				}
				written = true
			}
			if p != nil {
				run, err := storeRun(p, rep)
				if err != nil {
					return err
				}
				if !abQuiet {
					fmt.Printf("✓ Stored run %s in project '%s'\n", run.ID, p.Name)
				}
				written = true
			}
			if !written && !abQuiet {
				fmt.Println(rep.Markdown())
			}
		}
		return nil
	},
}

// expandInputs resolves globs and literal paths, dropping duplicates and
// files no loader accepts.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// uniquePath returns dir/base+ext, or dir/base__N+ext when that exists.
func uniquePath(dir, base, ext string) string {
	out := filepath.Join(dir, base+ext)
	if _, err := os.Stat(out); os.IsNotExist(err) {
		return out
	}
	for idx := 2; ; idx++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s__%d%s", base, idx, ext))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			if !abQuiet {
				fmt.Printf("⚠ Detected existing summary, writing to %s to avoid overwrite.\n", filepath.Base(cand))
			}
			return cand
		}
	}
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	abFlags.register(analyzeBatchCmd.Flags())
	analyzeBatchCmd.Flags().StringVar(&abOutputDir, "output-dir", "", "directory to write one Markdown summary per file")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}
