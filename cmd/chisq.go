package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/mvscope/internal/analysis"
	"github.com/KaramelBytes/mvscope/internal/dataset"
	"github.com/KaramelBytes/mvscope/internal/utils"
)

var (
	chiDelimiter  string
	chiSheetName  string
	chiSheetIndex int
	chiPValue     string
	chiJSON       bool
)

var chisqCmd = &cobra.Command{
	Use:   "chisq <file> <var1> <var2>",
	Short: "Test two categorical columns for independence",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		tab, err := loadForInspection(args[0], chiDelimiter, chiSheetName, chiSheetIndex)
		if err != nil {
			return err
		}
		method := analysis.PValueMethod(chiPValue)
		if !cmd.Flags().Changed("pvalue") {
			if c, err := currentConfig(); err == nil {
				method = analysis.PValueMethod(c.PValueMethod)
			}
		}
		if method, err = analysis.ParsePValueMethod(string(method)); err != nil {
			return err
		}
		res, err := analysis.ChiSquare(tab.Dataset, args[1], args[2], method)
		if err != nil {
			return err
		}
		if chiJSON {
			b, err := utils.PrettyJSON(res)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}
		printContingency(res)
		return nil
	},
}

func printContingency(res *analysis.ChiSquareResult) {
	fmt.Printf("%s × %s\n\n", analysis.ShortName(res.Var1), analysis.ShortName(res.Var2))
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\t%s\tTotal\n", strings.Join(res.ColValues, "\t"))
	for r, rv := range res.RowValues {
		cells := make([]string, len(res.ColValues))
		for c := range res.ColValues {
			cells[c] = fmt.Sprintf("%d (%.1f)", res.Observed[r][c], res.Expected[r][c])
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", rv, strings.Join(cells, "\t"), res.RowTotals[r])
	}
	totals := make([]string, len(res.ColTotals))
	for c, t := range res.ColTotals {
		totals[c] = fmt.Sprint(t)
	}
	fmt.Fprintf(tw, "Total\t%s\t%d\n", strings.Join(totals, "\t"), res.GrandTotal)
	tw.Flush()

	sig := "not significant"
	if res.Significant {
		sig = "significant"
	}
	fmt.Printf("\nchi2=%.3f df=%d p≈%.4g Cramér's V=%.3f (%s at %.2f)\n",
		res.ChiSquare, res.DF, res.PValue, res.CramersV, sig, analysis.SignificanceLevel)
}

// loadForInspection loads a file with loader settings taken from config
// unless overridden by the given flag values.
func loadForInspection(path, delimiter, sheetName string, sheetIndex int) (*dataset.Table, error) {
	delim := delimiter
	if delim == "" {
		if c, err := currentConfig(); err == nil {
			delim = c.Delimiter
		}
	}
	d, err := dataset.ParseDelimiter(delim)
	if err != nil {
		return nil, err
	}
	return dataset.LoadFile(path, dataset.Options{Delimiter: d, SheetName: sheetName, SheetIndex: sheetIndex})
}

func init() {
	rootCmd.AddCommand(chisqCmd)
	chisqCmd.Flags().StringVar(&chiDelimiter, "delimiter", "", "CSV delimiter: auto | comma | semicolon | tab | pipe")
	chisqCmd.Flags().StringVar(&chiSheetName, "sheet-name", "", "XLSX: sheet name to read")
	chisqCmd.Flags().IntVar(&chiSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index")
	chisqCmd.Flags().StringVar(&chiPValue, "pvalue", "table", "p-value method: table | exact")
	chisqCmd.Flags().BoolVar(&chiJSON, "json", false, "print the result as JSON")
}
