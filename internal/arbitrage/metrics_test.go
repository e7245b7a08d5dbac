package arbitrage

import (
	"testing"
)

// TestMetrics_Registration tests all metrics are initialized
func TestMetrics_Registration(t *testing.T) {
	if OpportunitiesDetectedTotal == nil {
		t.Error("OpportunitiesDetectedTotal not registered")
	}

	if EffectiveEdgeBPS == nil {
		t.Error("EffectiveEdgeBPS not registered")
	}

	if OpportunitySizeShares == nil {
		t.Error("OpportunitySizeShares not registered")
	}

	if ScanDurationSeconds == nil {
		t.Error("ScanDurationSeconds not registered")
	}

	if OpportunitiesDiscardedTotal == nil {
		t.Error("OpportunitiesDiscardedTotal not registered")
	}

	if StrategyClassTotal == nil {
		t.Error("StrategyClassTotal not registered")
	}
}

// TestMetrics_CounterIncrement tests counter can be incremented
func TestMetrics_CounterIncrement(t *testing.T) {
	OpportunitiesDetectedTotal.Inc()

	OpportunitiesDiscardedTotal.WithLabelValues("missing_depth").Inc()
	OpportunitiesDiscardedTotal.WithLabelValues("below_threshold").Inc()
}

// TestMetrics_HistogramObserve tests histogram can observe values
func TestMetrics_HistogramObserve(t *testing.T) {
	EffectiveEdgeBPS.Observe(150.0)
	OpportunitySizeShares.Observe(50.0)
	ScanDurationSeconds.Observe(0.001)
}

// TestMetrics_Labels tests label values are accepted
func TestMetrics_Labels(t *testing.T) {
	reasons := []string{
		"missing_depth",
		"below_threshold",
		"off_tick_grid",
		"zero_depth",
	}

	for _, reason := range reasons {
		OpportunitiesDiscardedTotal.WithLabelValues(reason).Inc()
	}

	for _, strategy := range []string{"immediate", "liquidity", "discarded"} {
		StrategyClassTotal.WithLabelValues(strategy).Inc()
	}
}
