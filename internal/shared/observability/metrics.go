package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	StoreOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "repolens_store_operation_seconds",
		Help:    "Time spent on key/value store operations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	HistoryRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repolens_history_records_total",
		Help: "Total number of history entries recorded.",
	}, []string{"kind"})

	HistoryEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repolens_history_evictions_total",
		Help: "Total number of history entries dropped by the size bound.",
	})

	HistoryDuplicatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repolens_history_duplicates_total",
		Help: "Total number of history entries replaced because their key was recorded again.",
	})

	HistoryDecodeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repolens_history_decode_failures_total",
		Help: "Total number of unreadable or malformed persisted history lists treated as empty.",
	})

	HistoryEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "repolens_history_entries",
		Help: "Number of entries in the persisted history after the last write.",
	})

	TreeRenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "repolens_tree_render_seconds",
		Help:    "Time spent rendering a dependency forest.",
		Buckets: prometheus.DefBuckets,
	})

	TreeNodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repolens_tree_nodes_total",
		Help: "Total number of rendered tree nodes by kind.",
	}, []string{"kind"})

	TreeDepthTruncationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repolens_tree_depth_truncations_total",
		Help: "Total number of nodes rendered as leaves because of the depth cap.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repolens_watcher_events_total",
		Help: "Total number of file system events received by the analysis watcher.",
	})

	WatcherReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repolens_watcher_reloads_total",
		Help: "Total number of analysis reloads triggered by the watcher.",
	}, []string{"result"})
)
