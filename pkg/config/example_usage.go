package config

// Example usage of the configuration system:
//
// 1. Load configuration with all sources:
//
//     cfg, err := config.Load("", nil)
//     if err != nil {
//         log.Fatal(err)
//     }
//
// 2. Load with a TOML file instead of YAML:
//
//     cfg, err := config.Load("/etc/igaudit/config.toml", nil)
//
// 3. Load with command line flags:
//
//     flags := map[string]interface{}{
//         "source":    "synthetic",
//         "yes":       true,
//         "export":    true,
//         "top":       10,
//         "log-level": "debug",
//     }
//     cfg, err := config.Load("", flags)
//
// 4. Environment variables:
//
//     IGAUDIT_SOURCE=relay|synthetic
//     IGAUDIT_RELAY_URL=http://127.0.0.1:8089
//     IGAUDIT_RELAY_TOKEN=...
//     IGAUDIT_LARGE_RUN_THRESHOLD=500
//     IGAUDIT_ASSUME_YES=true
//     IGAUDIT_CHECKPOINT_DIR=./checkpoints
//     IGAUDIT_PACING_MIN=1s
//     IGAUDIT_PACING_MAX=3s
//     IGAUDIT_OUTPUT_DIR=./results
//     IGAUDIT_LOG_LEVEL=info
//     IGAUDIT_METRICS_LISTEN=:9102
//
// 5. Example YAML configuration file:
//
//     source:
//       kind: relay
//       base_url: http://127.0.0.1:8089
//       timeout: 20s
//     collector:
//       large_run_threshold: 500
//       checkpoint_dir: ./checkpoints
//     pacing:
//       min_delay: 1s
//       max_delay: 3s
//     scoring:
//       weights:
//         spam_username: 2
//       suspicious_threshold: 30
//       fake_threshold: 60
//     output:
//       directory: ./results
//       top_n: 5
//     logging:
//       level: info
