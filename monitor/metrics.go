package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LatestHeadBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "monitor",
		Subsystem: "poller",
		Name:      "latest_head_block",
		Help:      "Shows the latest observed chain head block.",
	}, []string{"chain_id", "address"})
	LatestProcessedBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "monitor",
		Subsystem: "poller",
		Name:      "latest_processed_block",
		Help:      "Shows the scan cursor, the last block whose logs are fully ingested.",
	}, []string{"chain_id", "address"})
	IngestedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "monitor",
		Subsystem: "poller",
		Name:      "ingested_events_total",
		Help:      "Counts ingested events by kind.",
	}, []string{"chain_id", "address", "event"})
	SkippedLogs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "monitor",
		Subsystem: "poller",
		Name:      "skipped_logs_total",
		Help:      "Counts logs skipped because they could not be decoded.",
	}, []string{"chain_id", "address"})
	CycleErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "monitor",
		Subsystem: "poller",
		Name:      "cycle_errors_total",
		Help:      "Counts failed poll cycles by error class.",
	}, []string{"chain_id", "address", "class"})
)
