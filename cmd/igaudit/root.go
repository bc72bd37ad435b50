package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"igaudit/pkg/config"
	"igaudit/pkg/logger"
	"igaudit/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igaudit",
	Short: "Estimate which followers of an Instagram profile are fake",
	Long: `igaudit collects the followers of a profile and scores every account with
a fixed set of heuristic rules (follower ratio, posts, profile picture,
username and bio patterns). Each follower gets a fake probability between 0
and 100 and a label: LikelyReal, Suspicious or LikelyFake.

Collection is paced and checkpointed: every follower is written to a raw CSV
as soon as it is fetched, so an interrupted run keeps what it collected and
can be analyzed later with 'igaudit analyze'.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetQuietMode(quiet)
		ui.SetNoColor(noColor)

		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Parent() == rootCmd {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.igaudit.yaml or ~/.config/igaudit/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show log output alongside progress")

	rootCmd.SetVersionTemplate(`igaudit {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads the configuration with the given flag overlay and sets up
// the global logger. Without --verbose only warnings and errors are logged so
// the progress line stays readable.
func loadConfig(cmd *cobra.Command, flags map[string]interface{}) (*config.Config, logger.Logger, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	switch {
	case cmd.Flags().Changed("log-level"):
		flags["log-level"] = logLevel
	case quiet:
		flags["log-level"] = "error"
	case !verbose:
		flags["log-level"] = "warn"
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Debug("igaudit starting")

	return cfg, log, nil
}
