package arbitrage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpportunitiesDetectedTotal tracks arbitrage opportunities detected.
	OpportunitiesDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossmkt_arbitrage_opportunities_detected_total",
		Help: "Total number of arbitrage opportunities detected",
	})

	// EffectiveEdgeBPS tracks effective (fee-adjusted) edge in basis points.
	EffectiveEdgeBPS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossmkt_arbitrage_effective_edge_bps",
		Help:    "Effective edge after fee adjustment, in basis points",
		Buckets: []float64{10, 25, 50, 100, 200, 500, 1000, 2000, 5000},
	})

	// OpportunitySizeShares tracks the size cap of detected opportunities.
	OpportunitySizeShares = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossmkt_arbitrage_opportunity_size_shares",
		Help:    "Arbitrage opportunity size cap in shares",
		Buckets: prometheus.ExponentialBuckets(10, 2, 10),
	})

	// ScanDurationSeconds tracks scanner cycle latency.
	ScanDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossmkt_arbitrage_scan_duration_seconds",
		Help:    "Duration of one opportunity-scanner cycle",
		Buckets: prometheus.DefBuckets,
	})

	// OpportunitiesDiscardedTotal tracks discarded combinations by reason.
	OpportunitiesDiscardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossmkt_arbitrage_opportunities_discarded_total",
		Help: "Total number of crossing combinations discarded, by reason",
	}, []string{"reason"})

	// StrategyClassTotal tracks opportunities by the strategy class assigned.
	StrategyClassTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossmkt_arbitrage_strategy_class_total",
		Help: "Total number of opportunities by assigned strategy class",
	}, []string{"strategy"})
)
