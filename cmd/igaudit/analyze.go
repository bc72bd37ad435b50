package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"igaudit/pkg/checkpoint"
	"igaudit/pkg/storage"
	"igaudit/pkg/ui"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <raw.csv>",
	Short: "Score a previously collected raw follower file",
	Long: `Score the followers stored in a raw checkpoint CSV without contacting the
upstream. Use it to re-run the analysis after changing the scoring rules or to
finish an interrupted collection.`,
	Example: `  igaudit analyze checkpoints/raw_followers_someone_20240101_120000.csv --export`,
	Args:    cobra.ExactArgs(1),
	RunE:    runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addResultFlags(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, log, err := loadConfig(cmd, commandFlags(cmd))
	if err != nil {
		return err
	}

	records, err := storage.LoadRaw(path)
	if err != nil {
		return err
	}
	ui.PrintInfo("Raw file", fmt.Sprintf("%s (%d followers)", path, len(records)))

	info := runInfo{target: targetFromRawName(path), source: "replay"}
	if m, err := checkpoint.LoadManifest(checkpoint.ManifestPath(path)); err == nil {
		info.target = m.Target
		info.partial = m.Status != checkpoint.StatusComplete
	}

	return scoreAndReport(cmd.Context(), cfg, log, info, records)
}

// targetFromRawName recovers the target from raw_followers_<target>_<date>_<time>.csv
func targetFromRawName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.TrimPrefix(name, "raw_followers_")
	parts := strings.Split(name, "_")
	if len(parts) > 2 {
		return strings.Join(parts[:len(parts)-2], "_")
	}
	return name
}
