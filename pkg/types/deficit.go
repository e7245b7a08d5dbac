package types

import "time"

// DeficitEvent is handed from a strategy to Reconciliation (§4.H) whenever
// a hedge leg fills short of the quantity it was meant to cover.
type DeficitEvent struct {
	PositionID string
	Pair       MarketPair
	Token      Token // the under-hedged complementary token to buy more of
	Qty        float64
	RawEdge    float64 // the opportunity's raw edge at detection time, bounds the stop-loss
	Attempts   int
	CreatedAt  time.Time
}
