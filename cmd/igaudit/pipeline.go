package main

import (
	"context"
	"fmt"
	"os"

	"igaudit/pkg/analysis"
	"igaudit/pkg/config"
	"igaudit/pkg/logger"
	"igaudit/pkg/metrics"
	"igaudit/pkg/models"
	"igaudit/pkg/report"
	"igaudit/pkg/scoring"
	"igaudit/pkg/storage"
	"igaudit/pkg/ui"
)

type runInfo struct {
	target  string
	source  string
	partial bool
}

// scoreAndReport scores records, prints the summary and persists the results
// as configured
func scoreAndReport(ctx context.Context, cfg *config.Config, log logger.Logger, info runInfo, records []models.FollowerRecord) error {
	if ctx == nil {
		ctx = context.Background()
	}

	engine, err := scoring.NewEngine(scoring.RuleSetFromConfig(cfg.Scoring), scoring.ThresholdsFromConfig(cfg.Scoring))
	if err != nil {
		return fmt.Errorf("invalid scoring rules: %w", err)
	}

	res := analysis.New(engine, log).Analyze(records)
	for _, s := range res.Scored {
		metrics.ScoredFollowers.WithLabelValues(string(s.Score.Classification)).Inc()
	}
	if len(res.Rejected) > 0 {
		ui.PrintWarning(fmt.Sprintf("%d records could not be scored", len(res.Rejected)), res.Err())
	}

	if !ui.IsQuietMode() {
		fmt.Println()
		if err := report.Render(os.Stdout, report.Summarize(res.Scored, cfg.Output.TopN)); err != nil {
			return err
		}
		fmt.Println()
	}

	if cfg.Output.Export {
		manager, err := storage.NewManager(cfg.Output.Directory)
		if err != nil {
			return err
		}
		path, err := manager.ExportScored(res.Scored)
		if err != nil {
			return err
		}
		ui.PrintSuccess("Results exported to " + path)
	}

	if cfg.Output.ArchivePath != "" {
		archive, err := storage.OpenArchive(cfg.Output.ArchivePath)
		if err != nil {
			return err
		}
		defer archive.Close()

		id, err := archive.SaveRun(ctx, storage.Run{
			Target:  info.target,
			Source:  info.source,
			Partial: info.partial,
		}, res.Scored)
		if err != nil {
			return err
		}
		ui.PrintInfo("Archived run", fmt.Sprintf("#%d in %s", id, cfg.Output.ArchivePath))
	}

	return nil
}
