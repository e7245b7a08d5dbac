package feemodel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeRate_Symmetric(t *testing.T) {
	c := DefaultCurve()

	assert.InDelta(t, c.FeeRate(0.5), c.A*0.25+c.C, 1e-9)
	assert.InDelta(t, c.FeeRate(0.01), c.FeeRate(0.99), 1e-9)
}

func TestSizeForTarget_FeeDominatedBranch(t *testing.T) {
	c := DefaultCurve()

	// At p=0.5 with a large target, the fee rate (~0.0175) on a sizeable
	// notional clears MIN_FEE, so branch 1 applies.
	s := c.SizeForTarget(1000, 0.5)

	require.True(t, s.FeeDominated)
	f := c.FeeRate(0.5)
	assert.InDelta(t, 1000/(1-f), s.OrderQty, 1e-6)
	assert.InDelta(t, 0.5/(1-f), s.EffectiveCost, 1e-6)
}

func TestSizeForTarget_MinFeeDominatedBranch(t *testing.T) {
	c := DefaultCurve()

	// A tiny target at a low price keeps nominal fee under MIN_FEE.
	s := c.SizeForTarget(1, 0.01)

	require.False(t, s.FeeDominated)
	assert.InDelta(t, 1+c.MinFee/0.01, s.OrderQty, 1e-6)
}

func TestReceivedForOrder_RoundTripsWithSizeForTarget(t *testing.T) {
	c := DefaultCurve()

	for _, price := range []float64{0.02, 0.2, 0.5, 0.8, 0.97} {
		target := 200.0
		s := c.SizeForTarget(target, price)
		received := c.ReceivedForOrder(s.OrderQty, price)

		assert.InDelta(t, target, received, 0.05, "price=%v", price)
	}
}

func TestReceivedForOrder_NeverNegative(t *testing.T) {
	c := DefaultCurve()

	received := c.ReceivedForOrder(0.001, 0.5)
	assert.True(t, received >= 0)
}

func TestVenueBSizeForTarget_Identity(t *testing.T) {
	s := VenueBSizeForTarget(42.0)

	assert.Equal(t, 42.0, s.OrderQty)
}

func TestFeeRate_MonotoneNearBounds(t *testing.T) {
	c := DefaultCurve()

	// fee_rate is a downward parabola in p on [0,1]; it should be lowest
	// near the edges and highest near p=0.5.
	assert.True(t, c.FeeRate(0.5) > c.FeeRate(0.01))
	assert.True(t, c.FeeRate(0.5) > c.FeeRate(0.99))
	assert.True(t, math.Abs(c.FeeRate(0.5)-(c.A*0.25+c.C)) < 1e-9)
}
