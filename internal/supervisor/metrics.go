package supervisor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReconciliationAttemptsTotal tracks IOC hedge attempts issued by the
	// Reconciler, by venue.
	ReconciliationAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossmkt_reconciliation_attempts_total",
		Help: "Total number of reconciliation hedge attempts, by venue",
	}, []string{"venue"})

	// ReconciliationAbandonedTotal tracks deficits the Reconciler gave up
	// on, by reason.
	ReconciliationAbandonedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossmkt_reconciliation_abandoned_total",
		Help: "Total number of deficits abandoned by the reconciler, by reason",
	}, []string{"reason"})

	// ResidualExposureShares accumulates unresolved directional exposure
	// left after reconciliation exhausted its attempt budget.
	ResidualExposureShares = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossmkt_reconciliation_residual_exposure_shares_total",
		Help: "Cumulative unresolved directional exposure in shares after reconciliation gave up",
	})

	// LiquidityTicketsActive tracks the number of live liquidity tickets.
	LiquidityTicketsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossmkt_supervisor_liquidity_tickets_active",
		Help: "Number of liquidity strategy tickets currently active",
	})

	// ScanCyclesTotal tracks completed scan-fetch-dispatch cycles.
	ScanCyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossmkt_supervisor_scan_cycles_total",
		Help: "Total number of completed scan cycles",
	})

	// CircuitBreakerSkipsTotal tracks opportunities skipped because the
	// balance circuit breaker was disabled at dispatch time.
	CircuitBreakerSkipsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossmkt_supervisor_circuit_breaker_skips_total",
		Help: "Total number of opportunities skipped because the circuit breaker was disabled",
	})
)
