// Package ratelimit paces upstream fetches during a collection run.
//
// RandomDelay sleeps a uniformly random duration between a configured minimum
// and maximum before each follower is fetched, which keeps request timing
// irregular. A requests-per-minute ceiling backed by golang.org/x/time/rate can
// be layered on top of the delay.
//
// Usage:
//
//	pacer := ratelimit.NewRandomDelay(time.Second, 3*time.Second, 0)
//	if _, err := pacer.Wait(ctx); err != nil {
//	    return err // context cancelled
//	}
//
// Noop is used for offline and replay sources only.
package ratelimit
