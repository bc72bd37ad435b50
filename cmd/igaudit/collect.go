package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"igaudit/pkg/collector"
	"igaudit/pkg/config"
	"igaudit/pkg/instagram"
	"igaudit/pkg/logger"
	"igaudit/pkg/metrics"
	"igaudit/pkg/source"
	"igaudit/pkg/source/synthetic"
	"igaudit/pkg/ui"
)

var (
	// Collect command flags
	maxFollowers  int
	assumeYes     bool
	exportResults bool
	noPacing      bool
	sourceKind    string
	relayURL      string
	checkpointDir string
	outputDir     string
	topN          int
	archivePath   string
	metricsListen string
)

var collectCmd = &cobra.Command{
	Use:   "collect <username>",
	Short: "Collect and score the followers of a profile",
	Long: `Collect the followers of a profile, score each one and print a summary.

Followers are fetched one at a time with a random 1-3 second pause between
accounts. Every follower is committed to a raw checkpoint CSV before the next
one is fetched. If the run is interrupted the followers collected so far are
still scored and reported.

Profiles with more followers than the large-run threshold (500 by default)
need confirmation unless --max or --yes is given.`,
	Example: `  # Score the first 200 followers
  igaudit collect someone --max 200

  # Score every follower without asking and export the results
  igaudit collect someone --yes --export

  # Try the pipeline offline with generated followers
  igaudit collect demo --source synthetic --no-pacing`,
	Args: cobra.ExactArgs(1),
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().IntVarP(&maxFollowers, "max", "m", 0, "maximum number of followers to collect (0 = all)")
	collectCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation on large profiles")
	collectCmd.Flags().BoolVar(&noPacing, "no-pacing", false, "disable the delay between followers (offline sources only)")
	collectCmd.Flags().StringVar(&sourceKind, "source", "", "follower source: relay or synthetic")
	collectCmd.Flags().StringVar(&relayURL, "relay-url", "", "base URL of the profile relay")
	collectCmd.Flags().StringVar(&checkpointDir, "checkpoint-dir", "", "directory for raw checkpoint files")
	collectCmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address during the run")
	addResultFlags(collectCmd)
}

// addResultFlags registers the flags shared by every command that scores
func addResultFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&exportResults, "export", "e", false, "export scored results to CSV")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory for exported results")
	cmd.Flags().IntVarP(&topN, "top", "t", 5, "number of most likely fake followers to list")
	cmd.Flags().StringVar(&archivePath, "archive", "", "also store the run in this SQLite archive")
}

// commandFlags collects the flags the user set explicitly
func commandFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := func(name string, value interface{}) {
		if cmd.Flags().Lookup(name) != nil && cmd.Flags().Changed(name) {
			flags[name] = value
		}
	}
	set("source", sourceKind)
	set("relay-url", relayURL)
	set("yes", assumeYes)
	set("checkpoint-dir", checkpointDir)
	set("no-pacing", noPacing)
	set("output", outputDir)
	set("export", exportResults)
	set("top", topN)
	set("archive", archivePath)
	set("metrics-listen", metricsListen)
	return flags
}

// buildSource returns the profile and detail sources selected in the config
func buildSource(cfg *config.Config, log logger.Logger) (source.ProfileSource, source.ProfileDetailSource, error) {
	switch strings.ToLower(cfg.Source.Kind) {
	case "synthetic":
		s := synthetic.New(cfg.Source.SyntheticSeed, cfg.Source.SyntheticFollowers)
		return s, s, nil
	case "relay":
		c := instagram.NewClient(instagram.OptionsFromConfig(cfg.Source, cfg.Retry), log)
		return c, c, nil
	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}

func runCollect(cmd *cobra.Command, args []string) error {
	target := instagram.SanitizeUsername(args[0])
	if !instagram.IsValidUsername(target) {
		return fmt.Errorf("invalid username %q", args[0])
	}

	cfg, log, err := loadConfig(cmd, commandFlags(cmd))
	if err != nil {
		return err
	}

	profiles, details, err := buildSource(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.ListenAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.ListenAddr, log); err != nil {
				log.WithError(err).Warn("Metrics endpoint stopped")
			}
		}()
	}

	ui.PrintInfo("Target profile", "@"+target)
	ui.PrintInfo("Source", cfg.Source.Kind)
	if maxFollowers > 0 {
		ui.PrintInfo("Limit", fmt.Sprintf("%d followers", maxFollowers))
	}

	progress := ui.NewCollectionProgress(os.Stderr, target, maxFollowers)
	opts := collector.OptionsFromConfig(cfg, log)
	opts.Progress = progress.Update
	opts.Resolved = func(p source.TargetProfile) {
		ui.PrintInfo("Profile", fmt.Sprintf("%d followers, %d following", p.FollowerCount, p.FollowingCount))
	}
	opts.Confirm = func(target string, followerCount int) bool {
		return ui.ConfirmTerminal(fmt.Sprintf(
			"@%s has %d followers. Collecting all of them will take a long time. Continue?",
			target, followerCount))
	}

	outcome, err := collector.New(profiles, details, opts, log).Collect(ctx, target, maxFollowers)
	if err != nil && (outcome == nil || !outcome.Partial) {
		return err
	}

	for range outcome.Failed() {
		progress.Fail()
	}
	progress.Complete(outcome.Partial)
	ui.PrintInfo("Raw checkpoint", outcome.CheckpointPath)
	if err != nil {
		ui.PrintWarning("Run interrupted, scoring the followers collected so far", err)
	}
	if n := len(outcome.Unenriched()); n > 0 {
		ui.PrintWarning(fmt.Sprintf("%d followers kept default profile details after a failed lookup", n))
	}

	return scoreAndReport(cmd.Context(), cfg, log, runInfo{
		target:  target,
		source:  cfg.Source.Kind,
		partial: outcome.Partial,
	}, outcome.Records)
}
