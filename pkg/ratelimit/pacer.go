package ratelimit

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"igaudit/pkg/config"
)

// Pacer spaces out consecutive upstream fetches
type Pacer interface {
	// Wait blocks until the next fetch may proceed and returns how long it waited
	Wait(ctx context.Context) (time.Duration, error)
}

// RandomDelay waits a uniformly random duration in [min, max] before every
// fetch. An optional requests-per-minute ceiling is enforced on top of the delay.
type RandomDelay struct {
	min     time.Duration
	max     time.Duration
	ceiling *rate.Limiter

	mu    sync.Mutex
	float func() float64
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRandomDelay creates a pacer. perMinute <= 0 disables the ceiling.
func NewRandomDelay(min, max time.Duration, perMinute int) *RandomDelay {
	if max < min {
		max = min
	}

	p := &RandomDelay{
		min:   min,
		max:   max,
		float: rand.Float64,
		sleep: sleepCtx,
	}
	if perMinute > 0 {
		p.ceiling = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
	return p
}

// WithSource replaces the random source, mostly for deterministic tests.
// f must return values in [0, 1).
func (p *RandomDelay) WithSource(f func() float64) *RandomDelay {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.float = f
	return p
}

// Bounds returns the configured delay range
func (p *RandomDelay) Bounds() (time.Duration, time.Duration) {
	return p.min, p.max
}

// Next picks the next delay without waiting
func (p *RandomDelay) Next() time.Duration {
	p.mu.Lock()
	f := p.float()
	p.mu.Unlock()

	span := p.max - p.min
	return p.min + time.Duration(f*float64(span))
}

// Wait sleeps for the next randomized delay, honoring ctx
func (p *RandomDelay) Wait(ctx context.Context) (time.Duration, error) {
	start := time.Now()

	if p.ceiling != nil {
		if err := p.ceiling.Wait(ctx); err != nil {
			return time.Since(start), err
		}
	}

	if err := p.sleep(ctx, p.Next()); err != nil {
		return time.Since(start), err
	}
	return time.Since(start), nil
}

// Noop never waits. Only offline sources should use it.
type Noop struct{}

func (Noop) Wait(ctx context.Context) (time.Duration, error) {
	return 0, ctx.Err()
}

// FromConfig builds the pacer described by cfg
func FromConfig(cfg config.PacingConfig) Pacer {
	if cfg.Disabled {
		return Noop{}
	}
	return NewRandomDelay(cfg.MinDelay, cfg.MaxDelay, cfg.RequestsPerMinute)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
