package bookfetcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FrameDurationSeconds tracks how long one scan frame took to assemble.
	FrameDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossmkt_bookfetcher_frame_duration_seconds",
		Help:    "Duration of one scan frame assembly",
		Buckets: prometheus.DefBuckets,
	})

	// FrameSizeGauge tracks the number of snapshots in the latest frame.
	FrameSizeGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossmkt_bookfetcher_frame_size",
		Help: "Number of book snapshots in the most recent scan frame",
	})

	// BookFetchErrorsTotal tracks per-token fetch failures, by venue and kind.
	BookFetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossmkt_bookfetcher_errors_total",
		Help: "Total number of book fetch failures by venue and failure kind",
	}, []string{"venue", "kind"})
)
