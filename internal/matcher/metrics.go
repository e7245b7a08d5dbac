package matcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PairsBoundGauge tracks the number of market pairs currently bound.
	PairsBoundGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossmkt_matcher_pairs_bound",
		Help: "Number of market pairs currently bound across both venues",
	})

	// RefreshDurationSeconds tracks pair-registry refresh latency.
	RefreshDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossmkt_matcher_refresh_duration_seconds",
		Help:    "Duration of matcher refresh cycles",
		Buckets: prometheus.DefBuckets,
	})

	// RefreshErrorsTotal tracks refresh failures, by venue.
	RefreshErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossmkt_matcher_refresh_errors_total",
		Help: "Total number of matcher refresh failures by venue",
	}, []string{"venue"})
)
