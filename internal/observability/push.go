package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PushJob is the Pushgateway job name used by batch runs.
const PushJob = "weather_digest"

// Push sends everything in g to a Prometheus Pushgateway. Batch runs exit
// before a scrape could happen, so they push instead.
func Push(ctx context.Context, url string, g prometheus.Gatherer, runID string) error {
	err := push.New(url, PushJob).
		Gatherer(g).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
