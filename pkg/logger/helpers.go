package logger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// LogCollectProgress logs follower collection progress. total <= 0 means the
// upstream count is unknown.
func LogCollectProgress(l Logger, target string, collected, total int) {
	fields := map[string]interface{}{
		"target":    target,
		"collected": collected,
	}
	if total > 0 {
		fields["total"] = total
		fields["percentage"] = fmt.Sprintf("%.1f%%", float64(collected)/float64(total)*100)
	}
	l.DebugWithFields("Collection progress", fields)
}

// LogItemFailure logs a follower that could not be collected or enriched
func LogItemFailure(l Logger, username, stage string, err error) {
	l.WithError(err).WarnWithFields("Follower fetch failed", map[string]interface{}{
		"username": username,
		"stage":    stage,
	})
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	l.WithField("component", component).InfoWithFields("Component started", config)
}

// LogRunResult logs the final counters of a collection run
func LogRunResult(l Logger, target string, collected, failed int, partial bool) {
	l.InfoWithFields("Collection finished", map[string]interface{}{
		"target":    target,
		"collected": collected,
		"failed":    failed,
		"partial":   partial,
	})
}

// RetryableHTTPLogger adapts a Logger to the leveled logger interface of
// go-retryablehttp. Client errors are logged as warnings because they are
// retried.
type RetryableHTTPLogger struct {
	Inner Logger
}

func (r RetryableHTTPLogger) Error(msg string, keysAndValues ...interface{}) {
	r.Inner.WarnWithFields(msg, kvToFields(keysAndValues))
}

func (r RetryableHTTPLogger) Warn(msg string, keysAndValues ...interface{}) {
	r.Inner.WarnWithFields(msg, kvToFields(keysAndValues))
}

func (r RetryableHTTPLogger) Info(msg string, keysAndValues ...interface{}) {
	r.Inner.InfoWithFields(msg, kvToFields(keysAndValues))
}

func (r RetryableHTTPLogger) Debug(msg string, keysAndValues ...interface{}) {
	r.Inner.DebugWithFields(msg, kvToFields(keysAndValues))
}

func kvToFields(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kv[i])
		}
		fields[key] = kv[i+1]
	}
	return fields
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
