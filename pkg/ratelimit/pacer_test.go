package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igaudit/pkg/config"
)

func TestRandomDelayNextStaysInBounds(t *testing.T) {
	tests := []struct {
		name     string
		f        float64
		expected time.Duration
	}{
		{"lower bound", 0, time.Second},
		{"midpoint", 0.5, 2 * time.Second},
		{"near upper bound", 0.999, time.Second + time.Duration(0.999*float64(2*time.Second))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewRandomDelay(time.Second, 3*time.Second, 0).WithSource(func() float64 { return tt.f })
			d := p.Next()
			assert.Equal(t, tt.expected, d)
			assert.GreaterOrEqual(t, d, time.Second)
			assert.LessOrEqual(t, d, 3*time.Second)
		})
	}
}

func TestRandomDelayDefaultSourceInBounds(t *testing.T) {
	p := NewRandomDelay(10*time.Millisecond, 20*time.Millisecond, 0)
	for i := 0; i < 100; i++ {
		d := p.Next()
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.LessOrEqual(t, d, 20*time.Millisecond)
	}
}

func TestRandomDelayWaitSleepsChosenDelay(t *testing.T) {
	var slept []time.Duration
	p := NewRandomDelay(time.Second, 3*time.Second, 0).WithSource(func() float64 { return 0.25 })
	p.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	_, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, slept)
}

func TestRandomDelayWaitHonorsCancellation(t *testing.T) {
	p := NewRandomDelay(time.Hour, time.Hour, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRandomDelayRealSleep(t *testing.T) {
	p := NewRandomDelay(5*time.Millisecond, 10*time.Millisecond, 0)
	waited, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, waited, 5*time.Millisecond)
}

func TestRandomDelayCeiling(t *testing.T) {
	// 6000/min is one token every 10ms; the first Wait consumes the burst.
	p := NewRandomDelay(0, 0, 6000)
	_, err := p.Wait(context.Background())
	require.NoError(t, err)

	waited, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, waited, 5*time.Millisecond)
}

func TestNewRandomDelayClampsInvertedBounds(t *testing.T) {
	p := NewRandomDelay(2*time.Second, time.Second, 0)
	min, max := p.Bounds()
	assert.Equal(t, 2*time.Second, min)
	assert.Equal(t, 2*time.Second, max)
}

func TestFromConfig(t *testing.T) {
	assert.IsType(t, Noop{}, FromConfig(config.PacingConfig{Disabled: true}))

	p := FromConfig(config.PacingConfig{MinDelay: time.Second, MaxDelay: 3 * time.Second})
	rd, ok := p.(*RandomDelay)
	require.True(t, ok)
	min, max := rd.Bounds()
	assert.Equal(t, time.Second, min)
	assert.Equal(t, 3*time.Second, max)
}

func TestNoop(t *testing.T) {
	waited, err := Noop{}.Wait(context.Background())
	require.NoError(t, err)
	assert.Zero(t, waited)
}
