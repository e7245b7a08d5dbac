package types

import "time"

// PositionInFlight tracks one in-progress arbitrage from first leg through
// hedge completion. The Supervisor exclusively owns the set of in-flight
// positions; strategies mutate their assigned position only through the
// Supervisor's serialized message channel.
type PositionInFlight struct {
	ID                    string
	Pair                  MarketPair
	FirstLegTicket        *OrderTicket
	SecondLegTicket       *OrderTicket // nil until the first leg has a fill to hedge
	FirstFilledQtyAccum   float64
	HedgedQtyAccum        float64
	OpenedAt              time.Time
	ClosedAt              time.Time
	Strategy              string // "immediate" or "liquidity"
}

// Deficit is the quantity of the first leg's fill not yet hedged by the
// second leg. A positive deficit means residual directional exposure.
func (p PositionInFlight) Deficit() float64 {
	return p.FirstFilledQtyAccum - p.HedgedQtyAccum
}

// Done reports whether the position has no remaining deficit and both legs
// (where applicable) have reached a terminal state.
func (p PositionInFlight) Done() bool {
	if p.Deficit() > 1e-9 {
		return false
	}

	if p.FirstLegTicket != nil && !p.FirstLegTicket.State.Terminal() {
		return false
	}

	if p.SecondLegTicket != nil && !p.SecondLegTicket.State.Terminal() {
		return false
	}

	return true
}
