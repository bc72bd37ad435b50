package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for igaudit
type Config struct {
	// Where follower data comes from
	Source SourceConfig `yaml:"source" toml:"source" json:"source"`

	// Collection run policy
	Collector CollectorConfig `yaml:"collector" toml:"collector" json:"collector"`

	// Pacing between upstream fetches
	Pacing PacingConfig `yaml:"pacing" toml:"pacing" json:"pacing"`

	// Retry policy for target resolution
	Retry RetryConfig `yaml:"retry" toml:"retry" json:"retry"`

	// Heuristic rule weights and classification thresholds
	Scoring ScoringConfig `yaml:"scoring" toml:"scoring" json:"scoring"`

	// Export and report settings
	Output OutputConfig `yaml:"output" toml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" toml:"logging" json:"logging"`

	// Metrics endpoint
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics" json:"metrics"`
}

// SourceConfig selects and configures the follower source
type SourceConfig struct {
	Kind      string        `yaml:"kind" toml:"kind" json:"kind"`
	BaseURL   string        `yaml:"base_url" toml:"base_url" json:"base_url"`
	APIToken  string        `yaml:"api_token" toml:"api_token" json:"api_token"`
	UserAgent string        `yaml:"user_agent" toml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" toml:"timeout" json:"timeout"`
	PageSize  int           `yaml:"page_size" toml:"page_size" json:"page_size"`

	// Synthetic source settings
	SyntheticSeed      int64 `yaml:"synthetic_seed" toml:"synthetic_seed" json:"synthetic_seed"`
	SyntheticFollowers int   `yaml:"synthetic_followers" toml:"synthetic_followers" json:"synthetic_followers"`
}

// CollectorConfig holds collection run policy
type CollectorConfig struct {
	LargeRunThreshold int    `yaml:"large_run_threshold" toml:"large_run_threshold" json:"large_run_threshold"`
	AssumeYes         bool   `yaml:"assume_yes" toml:"assume_yes" json:"assume_yes"`
	CheckpointDir     string `yaml:"checkpoint_dir" toml:"checkpoint_dir" json:"checkpoint_dir"`
}

// PacingConfig holds the randomized delay bounds between follower fetches
type PacingConfig struct {
	MinDelay          time.Duration `yaml:"min_delay" toml:"min_delay" json:"min_delay"`
	MaxDelay          time.Duration `yaml:"max_delay" toml:"max_delay" json:"max_delay"`
	RequestsPerMinute int           `yaml:"requests_per_minute" toml:"requests_per_minute" json:"requests_per_minute"`
	// Disabled is only meant for offline/replay sources
	Disabled bool `yaml:"disabled" toml:"disabled" json:"disabled"`
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" toml:"max_attempts" json:"max_attempts"`
	BaseDelay    time.Duration `yaml:"base_delay" toml:"base_delay" json:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" toml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" toml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" toml:"jitter_factor" json:"jitter_factor"`
}

// ScoringConfig holds the heuristic rule table
type ScoringConfig struct {
	LowFollowerRatio  float64 `yaml:"low_follower_ratio" toml:"low_follower_ratio" json:"low_follower_ratio"`
	HighFollowerRatio float64 `yaml:"high_follower_ratio" toml:"high_follower_ratio" json:"high_follower_ratio"`

	Weights WeightsConfig `yaml:"weights" toml:"weights" json:"weights"`

	HighEngagementFollowers int `yaml:"high_engagement_followers" toml:"high_engagement_followers" json:"high_engagement_followers"`
	HighEngagementPosts     int `yaml:"high_engagement_posts" toml:"high_engagement_posts" json:"high_engagement_posts"`
	HighEngagementDiscount  int `yaml:"high_engagement_discount" toml:"high_engagement_discount" json:"high_engagement_discount"`

	SuspiciousThreshold float64 `yaml:"suspicious_threshold" toml:"suspicious_threshold" json:"suspicious_threshold"`
	FakeThreshold       float64 `yaml:"fake_threshold" toml:"fake_threshold" json:"fake_threshold"`
}

// WeightsConfig holds the additive contribution of each rule
type WeightsConfig struct {
	LowFollowerRatio  int `yaml:"low_follower_ratio" toml:"low_follower_ratio" json:"low_follower_ratio"`
	HighFollowerRatio int `yaml:"high_follower_ratio" toml:"high_follower_ratio" json:"high_follower_ratio"`
	NoProfilePic      int `yaml:"no_profile_pic" toml:"no_profile_pic" json:"no_profile_pic"`
	NoPosts           int `yaml:"no_posts" toml:"no_posts" json:"no_posts"`
	FewPosts          int `yaml:"few_posts" toml:"few_posts" json:"few_posts"`
	SpamUsername      int `yaml:"spam_username" toml:"spam_username" json:"spam_username"`
	SuspiciousBio     int `yaml:"suspicious_bio" toml:"suspicious_bio" json:"suspicious_bio"`
	EmptyBio          int `yaml:"empty_bio" toml:"empty_bio" json:"empty_bio"`
	EmptyFullName     int `yaml:"empty_full_name" toml:"empty_full_name" json:"empty_full_name"`
}

// OutputConfig holds export configuration
type OutputConfig struct {
	Directory   string `yaml:"directory" toml:"directory" json:"directory"`
	Export      bool   `yaml:"export" toml:"export" json:"export"`
	TopN        int    `yaml:"top_n" toml:"top_n" json:"top_n"`
	ArchivePath string `yaml:"archive_path" toml:"archive_path" json:"archive_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level" json:"level"`
	File  string `yaml:"file" toml:"file" json:"file"`
}

// MetricsConfig holds the Prometheus endpoint configuration
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr" toml:"listen_addr" json:"listen_addr"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:               "relay",
			BaseURL:            "http://127.0.0.1:8089",
			UserAgent:          "igaudit/1.0",
			Timeout:            20 * time.Second,
			PageSize:           50,
			SyntheticSeed:      1,
			SyntheticFollowers: 50,
		},
		Collector: CollectorConfig{
			LargeRunThreshold: 500,
			AssumeYes:         false,
			CheckpointDir:     "./checkpoints",
		},
		Pacing: PacingConfig{
			MinDelay:          1 * time.Second,
			MaxDelay:          3 * time.Second,
			RequestsPerMinute: 0, // 0 means no ceiling beyond the delay
			Disabled:          false,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			BaseDelay:    1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		Scoring: ScoringConfig{
			LowFollowerRatio:  0.01,
			HighFollowerRatio: 50,
			Weights: WeightsConfig{
				LowFollowerRatio:  3,
				HighFollowerRatio: 2,
				NoProfilePic:      2,
				NoPosts:           3,
				FewPosts:          1,
				SpamUsername:      2,
				SuspiciousBio:     2,
				EmptyBio:          1,
				EmptyFullName:     1,
			},
			HighEngagementFollowers: 10000,
			HighEngagementPosts:     30,
			HighEngagementDiscount:  2,
			SuspiciousThreshold:     30,
			FakeThreshold:           60,
		},
		Output: OutputConfig{
			Directory: "./results",
			Export:    false,
			TopN:      5,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if kind := os.Getenv("IGAUDIT_SOURCE"); kind != "" {
		c.Source.Kind = kind
	}
	if baseURL := os.Getenv("IGAUDIT_RELAY_URL"); baseURL != "" {
		c.Source.BaseURL = baseURL
	}
	if token := os.Getenv("IGAUDIT_RELAY_TOKEN"); token != "" {
		c.Source.APIToken = token
	}

	if threshold := os.Getenv("IGAUDIT_LARGE_RUN_THRESHOLD"); threshold != "" {
		val, err := strconv.Atoi(threshold)
		if err != nil {
			errs = append(errs, fmt.Errorf("IGAUDIT_LARGE_RUN_THRESHOLD: %w", err))
		} else {
			c.Collector.LargeRunThreshold = val
		}
	}
	if assumeYes := os.Getenv("IGAUDIT_ASSUME_YES"); assumeYes != "" {
		c.Collector.AssumeYes = strings.ToLower(assumeYes) == "true"
	}
	if dir := os.Getenv("IGAUDIT_CHECKPOINT_DIR"); dir != "" {
		c.Collector.CheckpointDir = dir
	}

	if minDelay := os.Getenv("IGAUDIT_PACING_MIN"); minDelay != "" {
		d, err := time.ParseDuration(minDelay)
		if err != nil {
			errs = append(errs, fmt.Errorf("IGAUDIT_PACING_MIN: %w", err))
		} else {
			c.Pacing.MinDelay = d
		}
	}
	if maxDelay := os.Getenv("IGAUDIT_PACING_MAX"); maxDelay != "" {
		d, err := time.ParseDuration(maxDelay)
		if err != nil {
			errs = append(errs, fmt.Errorf("IGAUDIT_PACING_MAX: %w", err))
		} else {
			c.Pacing.MaxDelay = d
		}
	}

	if outputDir := os.Getenv("IGAUDIT_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}
	if logLevel := os.Getenv("IGAUDIT_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if listen := os.Getenv("IGAUDIT_METRICS_LISTEN"); listen != "" {
		c.Metrics.ListenAddr = listen
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML or TOML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".igaudit.yaml",
		".igaudit.yml",
		".igaudit.toml",
		filepath.Join(home, ".config", "igaudit", "config.yaml"),
		filepath.Join(home, ".config", "igaudit", "config.yml"),
		filepath.Join(home, ".config", "igaudit", "config.toml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Source.Kind) {
	case "relay":
		if c.Source.BaseURL == "" {
			errs = append(errs, errors.New("relay source requires a base URL"))
		}
		if c.Source.Timeout <= 0 {
			errs = append(errs, errors.New("source timeout must be positive"))
		}
		if c.Pacing.Disabled {
			errs = append(errs, errors.New("pacing can only be disabled for the synthetic source"))
		}
	case "synthetic":
		if c.Source.SyntheticFollowers < 0 {
			errs = append(errs, errors.New("synthetic follower count cannot be negative"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source kind %q", c.Source.Kind))
	}

	if c.Collector.LargeRunThreshold < 0 {
		errs = append(errs, errors.New("large run threshold cannot be negative"))
	}
	if c.Collector.CheckpointDir == "" {
		errs = append(errs, errors.New("checkpoint directory is required"))
	}

	if !c.Pacing.Disabled {
		if c.Pacing.MinDelay <= 0 {
			errs = append(errs, errors.New("pacing min delay must be positive"))
		}
		if c.Pacing.MaxDelay < c.Pacing.MinDelay {
			errs = append(errs, errors.New("pacing max delay must not be below min delay"))
		}
	}
	if c.Pacing.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}

	s := c.Scoring
	if s.LowFollowerRatio < 0 || s.HighFollowerRatio <= s.LowFollowerRatio {
		errs = append(errs, errors.New("follower ratio bounds must satisfy 0 <= low < high"))
	}
	if s.SuspiciousThreshold < 0 || s.FakeThreshold < s.SuspiciousThreshold || s.FakeThreshold > 100 {
		errs = append(errs, errors.New("thresholds must satisfy 0 <= suspicious <= fake <= 100"))
	}
	w := s.Weights
	for name, v := range map[string]int{
		"low_follower_ratio":  w.LowFollowerRatio,
		"high_follower_ratio": w.HighFollowerRatio,
		"no_profile_pic":      w.NoProfilePic,
		"no_posts":            w.NoPosts,
		"few_posts":           w.FewPosts,
		"spam_username":       w.SpamUsername,
		"suspicious_bio":      w.SuspiciousBio,
		"empty_bio":           w.EmptyBio,
		"empty_full_name":     w.EmptyFullName,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("weight %s cannot be negative", name))
		}
	}
	if s.HighEngagementDiscount < 0 {
		errs = append(errs, errors.New("high engagement discount cannot be negative"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.TopN < 0 {
		errs = append(errs, errors.New("top N cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if source, ok := flags["source"].(string); ok && source != "" {
		c.Source.Kind = source
	}
	if baseURL, ok := flags["relay-url"].(string); ok && baseURL != "" {
		c.Source.BaseURL = baseURL
	}
	if yes, ok := flags["yes"].(bool); ok && yes {
		c.Collector.AssumeYes = true
	}
	if dir, ok := flags["checkpoint-dir"].(string); ok && dir != "" {
		c.Collector.CheckpointDir = dir
	}
	if noPacing, ok := flags["no-pacing"].(bool); ok && noPacing {
		c.Pacing.Disabled = true
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if export, ok := flags["export"].(bool); ok && export {
		c.Output.Export = true
	}
	if topN, ok := flags["top"].(int); ok && topN >= 0 {
		c.Output.TopN = topN
	}
	if archive, ok := flags["archive"].(string); ok && archive != "" {
		c.Output.ArchivePath = archive
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if listen, ok := flags["metrics-listen"].(string); ok && listen != "" {
		c.Metrics.ListenAddr = listen
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igaudit.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
