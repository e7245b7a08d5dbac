package types

import "time"

// StrategyClass is the disposition the Opportunity Scanner assigns an
// Opportunity once its effective edge is known.
type StrategyClass string

const (
	StrategyImmediate StrategyClass = "immediate"
	StrategyLiquidity StrategyClass = "liquidity"
	StrategyDiscarded StrategyClass = "discarded"
)

// Opportunity is an apparent arbitrage across one crossing combination of a
// Market Pair: a buy-YES leg on one venue hedged by a buy-NO leg on the
// other, at their respective best ask.
type Opportunity struct {
	Pair      MarketPair
	LegAToken Token // token bought on venue A (or whichever venue leads this combination)
	LegBToken Token
	AskPriceA float64
	AskSizeA  float64
	AskPriceB float64
	AskSizeB  float64

	RawEdge          float64 // 1 - (AskPriceA + AskPriceB)
	EffectiveEdge    float64 // raw edge recomputed with fee-adjusted cost on the fee-charging leg
	SizeCap          float64 // min(depth_A, depth_B, per-trade cap, notional cap / (p_A+p_B))
	AnnualizedReturn float64
	DaysToResolution float64

	Strategy  StrategyClass
	DetectedAt time.Time
}

// Tradeable reports whether the opportunity survived classification with a
// runnable strategy.
func (o Opportunity) Tradeable() bool {
	return o.Strategy == StrategyImmediate || o.Strategy == StrategyLiquidity
}
