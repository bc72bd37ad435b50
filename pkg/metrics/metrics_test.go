package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igaudit/pkg/logger"
)

func TestFollowersProcessedCountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(FollowersProcessed.WithLabelValues(ItemFailed))
	FollowersProcessed.WithLabelValues(ItemFailed).Inc()
	FollowersProcessed.WithLabelValues(ItemFailed).Inc()
	assert.Equal(t, before+2, testutil.ToFloat64(FollowersProcessed.WithLabelValues(ItemFailed)))
}

func TestObservePacing(t *testing.T) {
	ObservePacing(1500 * time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(PacingWait))
}

func TestServeExposesMetrics(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	Runs.WithLabelValues("complete").Inc()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, logger.NewNopLogger()) }()

	var body []byte
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ = io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	assert.Contains(t, string(body), "igaudit_collection_runs_total")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
