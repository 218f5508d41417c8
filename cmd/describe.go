package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/mvscope/internal/analysis"
)

var (
	descColumn     string
	descDelimiter  string
	descSheetName  string
	descSheetIndex int
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Show per-column statistics, or value frequencies with --column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tab, err := loadForInspection(args[0], descDelimiter, descSheetName, descSheetIndex)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		defer tw.Flush()

		if descColumn != "" {
			freqs, err := analysis.Frequencies(tab.Dataset, descColumn)
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "VALUE\tCOUNT\tPERCENT")
			for _, f := range freqs {
				fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", f.Value, f.Count, f.Percentage)
			}
			return nil
		}

		enc, err := analysis.Encode(tab.Dataset)
		if err != nil {
			return err
		}
		st, err := analysis.Describe(enc.Table.Columns, enc.Matrix)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d rows, %d columns\n", tab.Name, tab.Len(), len(tab.Columns))
		for _, n := range tab.Notes() {
			fmt.Printf("⚠ %s\n", n)
		}
		fmt.Fprintln(tw, "COLUMN\tDISTINCT\tMEAN\tMEDIAN\tSTD\tMIN\tMAX")
		for j, s := range st {
			fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\t%.3f\t%.0f\t%.0f\n",
				s.Column, enc.Table.Cardinality(j), s.Mean, s.Median, s.Std, s.Min, s.Max)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringVar(&descColumn, "column", "", "list value frequencies of one column")
	describeCmd.Flags().StringVar(&descDelimiter, "delimiter", "", "CSV delimiter: auto | comma | semicolon | tab | pipe")
	describeCmd.Flags().StringVar(&descSheetName, "sheet-name", "", "XLSX: sheet name to read")
	describeCmd.Flags().IntVar(&descSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index")
}
