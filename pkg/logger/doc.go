// Package logger provides the structured logging interface used across igaudit.
//
// It wraps zerolog behind a small Logger interface so components can attach
// fields (target, username, stage) without depending on zerolog directly.
//
// Basic Usage:
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "info"})
//
//	logger.Info("Application started")
//	logger.WithField("target", "alice").Info("Collection started")
//
// Components receive a Logger and derive children with WithField(s):
//
//	log := base.WithField("component", "collector")
//	log.InfoWithFields("Collection finished", map[string]interface{}{
//	    "collected": 42,
//	    "failed":    1,
//	})
//
// Tests use NewTestLogger to capture entries or NewNopLogger to drop them.
package logger
