package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igaudit/pkg/config"
	errs "igaudit/pkg/errors"
	"igaudit/pkg/logger"
)

func testConfig(maxAttempts int, retryIf func(error) bool) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     retryIf,
		Context:     context.Background(),
		Logger:      logger.NewNopLogger(),
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{6, 1 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoffJitterStaysInBand(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	for i := 0; i < 50; i++ {
		d := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, d, 140*time.Millisecond)
		assert.LessOrEqual(t, d, 260*time.Millisecond)
	}
}

func TestExponentialFromConfig(t *testing.T) {
	b := ExponentialFromConfig(config.RetryConfig{
		BaseDelay:    2 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   3,
		JitterFactor: 0,
	})
	assert.Equal(t, 2*time.Second, b.BaseDelay)
	assert.Equal(t, 10*time.Second, b.MaxDelay)
	assert.Equal(t, 3.0, b.Multiplier)
	assert.Equal(t, 6*time.Second, b.NextDelay(2))

	defaults := ExponentialFromConfig(config.RetryConfig{})
	assert.Equal(t, time.Second, defaults.BaseDelay)
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	err := Do(func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, testConfig(5, func(error) bool { return true }))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	cause := errs.UpstreamUnavailable("resolve", "alice", errors.New("503"))

	err := Do(func() error {
		attempts++
		return cause
	}, testConfig(3, DefaultRetryIf))

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.ErrorIs(t, err, errs.ErrUpstreamUnavailable)
}

func TestRetryWithNonRetryableError(t *testing.T) {
	attempts := 0
	notFound := errs.TargetNotFound("ghost", nil)

	err := Do(func() error {
		attempts++
		return notFound
	}, testConfig(5, DefaultRetryIf))

	assert.Equal(t, notFound, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	cfg := testConfig(5, func(error) bool { return true })
	cfg.Backoff = &ConstantBackoff{Delay: time.Hour}

	err := Do(func() error {
		attempts++
		cancel()
		return errors.New("error")
	}, cfg.WithContext(ctx))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestOnRetryCalledBetweenAttempts(t *testing.T) {
	var calls []int
	cfg := testConfig(3, func(error) bool { return true })
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		calls = append(calls, attempt)
	}

	_ = Do(func() error { return errors.New("boom") }, cfg)
	assert.Equal(t, []int{1, 2}, calls)
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"untyped", errors.New("reset by peer"), true},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"unavailable", errs.UpstreamUnavailable("resolve", "a", nil), true},
		{"not found", errs.TargetNotFound("a", nil), false},
		{"invalid record", errs.InvalidRecord("a", "negative count"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultRetryIf(tt.err))
		})
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	}, testConfig(3, func(error) bool { return true }))

	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 2, attempts)
}
