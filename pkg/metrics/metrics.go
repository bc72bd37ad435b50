// Package metrics exposes Prometheus counters for collection runs.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"igaudit/pkg/logger"
)

// Item outcomes
const (
	ItemCollected = "collected"
	ItemFailed    = "failed"
	ItemDuplicate = "duplicate"
)

var FollowersProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "igaudit_followers_processed_total",
	Help: "Number of follower items processed, by outcome",
}, []string{"outcome"})

var EnrichmentFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "igaudit_enrichment_failures_total",
	Help: "Number of detail lookups that fell back to default fields",
})

var PacingWait = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "igaudit_pacing_wait_seconds",
	Help:    "A histogram of pacing delays between follower fetches",
	Buckets: prometheus.ExponentialBuckets(0.25, 2, 6),
})

var Runs = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "igaudit_collection_runs_total",
	Help: "Number of collection runs, by final status",
}, []string{"status"})

var ScoredFollowers = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "igaudit_scored_followers_total",
	Help: "Number of scored followers, by classification",
}, []string{"classification"})

// ObservePacing records one pacing delay
func ObservePacing(d time.Duration) {
	PacingWait.Observe(d.Seconds())
}

// Serve exposes /metrics on addr until ctx is done
func Serve(ctx context.Context, addr string, log logger.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
