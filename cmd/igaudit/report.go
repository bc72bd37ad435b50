package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"igaudit/pkg/report"
	"igaudit/pkg/storage"
)

var reportCmd = &cobra.Command{
	Use:   "report <scored.csv>",
	Short: "Print the summary of an exported result file",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().IntVarP(&topN, "top", "t", report.DefaultTopN, "number of most likely fake followers to list")
}

func runReport(cmd *cobra.Command, args []string) error {
	results, err := storage.LoadScored(args[0])
	if err != nil {
		return err
	}

	fmt.Println()
	return report.Render(os.Stdout, report.Summarize(results, topN))
}
