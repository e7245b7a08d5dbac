// Package feemodel implements Venue A's per-trade fee curve and the
// two-branch sizing arithmetic that turns a target fill quantity into the
// order quantity actually submitted. Generalized from the teacher's flat
// takerFee*notional accounting (internal/arbitrage/opportunity.go) into a
// price-dependent curve, per the two-venue fee spec.
package feemodel

// Curve holds the coefficients of fee_rate(p) = a*p*(1-p) + c, plus the
// minimum fee floor in quote units.
type Curve struct {
	A      float64
	C      float64
	MinFee float64
}

// DefaultCurve matches the reference coefficients (a≈0.06, c≈0.0025,
// MIN_FEE≈0.50).
func DefaultCurve() Curve {
	return Curve{A: 0.06, C: 0.0025, MinFee: 0.50}
}

// FeeRate returns fee_rate(p) for a price in [0,1].
func (c Curve) FeeRate(price float64) float64 {
	return c.A*price*(1-price) + c.C
}

// Sizing is the result of converting a target fill quantity into an order
// quantity, carrying the effective per-share cost used by the Opportunity
// Scanner's cost-adjusted edge calculation.
type Sizing struct {
	OrderQty        float64
	EffectiveCost   float64 // per-share cost, averaged over OrderQty
	FeeDominated    bool    // true when nominal_fee > MIN_FEE (branch 1)
}

// SizeForTarget implements §4.D steps 1-5: given a target fill quantity
// (shares the operator wants to hold after fees) at price, compute the
// order quantity to submit and its effective per-share cost.
func (c Curve) SizeForTarget(targetQty, price float64) Sizing {
	f := c.FeeRate(price)

	orderQty := targetQty / (1 - f)
	nominalFee := price * orderQty * f

	if nominalFee > c.MinFee {
		return Sizing{
			OrderQty:     orderQty,
			EffectiveCost: price / (1 - f),
			FeeDominated: true,
		}
	}

	orderQty = targetQty + c.MinFee/price
	effectiveCost := price + c.MinFee/(price*orderQty)

	return Sizing{
		OrderQty:     orderQty,
		EffectiveCost: effectiveCost,
		FeeDominated: false,
	}
}

// ReceivedForOrder is the inverse of SizeForTarget: given an order quantity
// actually submitted, how many shares the operator ends up holding after
// the fee is withheld. Used after fills to compute hedge sizing.
func (c Curve) ReceivedForOrder(orderQty, price float64) float64 {
	f := c.FeeRate(price)

	nominalFee := price * orderQty * f
	actualFee := nominalFee
	if c.MinFee > actualFee {
		actualFee = c.MinFee
	}

	feeShares := actualFee / price

	received := orderQty - feeShares
	if received < 0 {
		return 0
	}

	return received
}

// VenueBSizeForTarget is the identity sizing Venue B uses: no fee is
// withheld from the received quantity.
func VenueBSizeForTarget(targetQty float64) Sizing {
	return Sizing{OrderQty: targetQty, EffectiveCost: 0, FeeDominated: false}
}
