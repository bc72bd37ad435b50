package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"igaudit/pkg/report"
	"igaudit/pkg/storage"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect runs stored in a SQLite archive",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the summary of an archived run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)

	runsCmd.PersistentFlags().StringVar(&archivePath, "archive", "", "SQLite archive path (default: output.archive_path)")
	runsShowCmd.Flags().IntVarP(&topN, "top", "t", report.DefaultTopN, "number of most likely fake followers to list")
}

func openArchive(cmd *cobra.Command) (*storage.SQLiteArchive, error) {
	cfg, _, err := loadConfig(cmd, commandFlags(cmd))
	if err != nil {
		return nil, err
	}
	if cfg.Output.ArchivePath == "" {
		return nil, fmt.Errorf("no archive configured: pass --archive or set output.archive_path")
	}
	return storage.OpenArchive(cfg.Output.ArchivePath)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	archive, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer archive.Close()

	runs, err := archive.ListRuns(cmd.Context())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTARGET\tSOURCE\tFOLLOWERS\tPARTIAL\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%t\t%s\n",
			r.ID, r.Target, r.Source, r.Total, r.Partial, r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", args[0], err)
	}

	archive, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer archive.Close()

	run, results, err := archive.LoadRun(cmd.Context(), id)
	if err != nil {
		return err
	}

	fmt.Printf("Run #%d of @%s (%s)\n\n", run.ID, run.Target, run.CreatedAt.Local().Format("2006-01-02 15:04"))
	return report.Render(os.Stdout, report.Summarize(results, topN))
}
