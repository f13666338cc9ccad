package db

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Buckets skew low: the store is an embedded SQLite file, so durations past
// a few hundred milliseconds indicate lock contention or a busy timeout.
var QueryDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "monitor",
	Subsystem: "db",
	Name:      "query_duration_seconds",
	Help:      "Duration of storage queries, labeled by repository method.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.1, 0.5, 1, 5},
}, []string{"query"})

func ObserveDuration(query string) func() time.Duration {
	return prometheus.NewTimer(QueryDurations.WithLabelValues(query)).ObserveDuration
}
