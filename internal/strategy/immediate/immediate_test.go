package immediate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/crossmkt-arb/internal/feemodel"
	"github.com/mselser95/crossmkt-arb/internal/venue"
	"github.com/mselser95/crossmkt-arb/pkg/types"
)

type scriptedClient struct {
	mu       sync.Mutex
	venue    types.Venue
	fillQty  float64
	fillStep []float64 // sequence of FilledQty values returned by successive PollOrder calls
	pollIdx  int
	failPlace bool
}

func (c *scriptedClient) Venue() types.Venue { return c.venue }
func (c *scriptedClient) ListActiveMarkets(ctx context.Context) types.Result[[]types.VenueMarket] {
	return types.Ok[[]types.VenueMarket](nil)
}
func (c *scriptedClient) FetchBook(ctx context.Context, token types.Token) types.Result[types.BookSnapshot] {
	return types.Ok(types.BookSnapshot{})
}
func (c *scriptedClient) PlaceOrder(ctx context.Context, t types.OrderTicket) types.Result[types.OrderTicket] {
	if c.failPlace {
		return types.Err[types.OrderTicket](&types.Failure{Kind: types.FailureTransient, Venue: c.venue})
	}

	t.VenueOrderID = "vo-" + t.ID
	t.State = types.OrderOpen

	return types.Ok(t)
}
func (c *scriptedClient) PollOrder(ctx context.Context, id string) types.Result[types.OrderTicket] {
	c.mu.Lock()
	defer c.mu.Unlock()

	qty := c.fillQty
	if c.pollIdx < len(c.fillStep) {
		qty = c.fillStep[c.pollIdx]
		c.pollIdx++
	}

	return types.Ok(types.OrderTicket{
		VenueOrderID: id,
		State:        types.OrderFilled,
		FilledQty:    qty,
		AvgFillPrice: 0.4,
	})
}
func (c *scriptedClient) CancelOrder(ctx context.Context, id string) types.Result[struct{}] {
	return types.Ok(struct{}{})
}

func testOpp() types.Opportunity {
	legA := types.Token{Venue: types.VenuePolymarketlike, MarketID: "a", TokenID: "a-yes", OutcomeLabel: types.OutcomeYes, TickSize: 0.01}
	legB := types.Token{Venue: types.VenueKalshilike, MarketID: "b", TokenID: "b-no", OutcomeLabel: types.OutcomeNo, TickSize: 0.01}

	return types.Opportunity{
		Pair:       types.MarketPair{ID: "pair-1"},
		LegAToken:  legA,
		LegBToken:  legB,
		AskPriceA:  0.40,
		AskSizeA:   50,
		AskPriceB:  0.40,
		AskSizeB:   100,
		RawEdge:    0.20,
		SizeCap:    50,
		DetectedAt: time.Now(),
	}
}

func TestExecute_FullFillOnBothLegsReportsSuccess(t *testing.T) {
	a := &scriptedClient{venue: types.VenuePolymarketlike, fillQty: 50}
	b := &scriptedClient{venue: types.VenueKalshilike, fillQty: 50}

	results := make(chan types.ExecutionResult, 1)
	deficits := make(chan types.DeficitEvent, 1)

	r := New(Config{
		Clients:          map[types.Venue]venue.Client{types.VenuePolymarketlike: a, types.VenueKalshilike: b},
		FeeCurve:         feemodel.DefaultCurve(),
		Slots:            1,
		MinHedgeSize:     1,
		SlippageCapTicks: 2,
		PollInterval:     time.Millisecond,
		PollTimeout:      time.Second,
		Logger:           zap.NewNop(),
		Results:          results,
		Deficits:         deficits,
	})

	r.execute(context.Background(), testOpp())

	select {
	case res := <-results:
		assert.True(t, res.Success)
		require.NotNil(t, res.FirstLeg)
		require.NotNil(t, res.SecondLeg)
	case <-time.After(time.Second):
		t.Fatal("no result reported")
	}

	select {
	case <-deficits:
		t.Fatal("unexpected deficit")
	default:
	}
}

func TestExecute_ShortSecondLegEmitsDeficit(t *testing.T) {
	a := &scriptedClient{venue: types.VenuePolymarketlike, fillQty: 50}
	b := &scriptedClient{venue: types.VenueKalshilike, fillQty: 30} // short fill

	results := make(chan types.ExecutionResult, 1)
	deficits := make(chan types.DeficitEvent, 1)

	r := New(Config{
		Clients:          map[types.Venue]venue.Client{types.VenuePolymarketlike: a, types.VenueKalshilike: b},
		FeeCurve:         feemodel.DefaultCurve(),
		Slots:            1,
		MinHedgeSize:     1,
		SlippageCapTicks: 2,
		PollInterval:     time.Millisecond,
		PollTimeout:      time.Second,
		Logger:           zap.NewNop(),
		Results:          results,
		Deficits:         deficits,
	})

	r.execute(context.Background(), testOpp())

	select {
	case ev := <-deficits:
		// first leg (venue A) withholds a fee from the 50 filled shares
		// (ReceivedForOrder(50, 0.4) = 48.75) before sizing the hedge leg,
		// which fills short at 30.
		assert.InDelta(t, 18.75, ev.Qty, 1e-9)
	case <-time.After(time.Second):
		t.Fatal("expected deficit event")
	}
}

func TestExecute_FirstLegBelowMinHedgeSizeAborts(t *testing.T) {
	a := &scriptedClient{venue: types.VenuePolymarketlike, fillQty: 0.1}
	b := &scriptedClient{venue: types.VenueKalshilike, fillQty: 50}

	results := make(chan types.ExecutionResult, 1)

	r := New(Config{
		Clients:      map[types.Venue]venue.Client{types.VenuePolymarketlike: a, types.VenueKalshilike: b},
		FeeCurve:     feemodel.DefaultCurve(),
		Slots:        1,
		MinHedgeSize: 1,
		PollInterval: time.Millisecond,
		PollTimeout:  time.Second,
		Logger:       zap.NewNop(),
		Results:      results,
	})

	r.execute(context.Background(), testOpp())

	select {
	case res := <-results:
		assert.Nil(t, res.SecondLeg)
	case <-time.After(time.Second):
		t.Fatal("expected abort result")
	}
}

func TestExecute_FirstLegPlaceFailureAborts(t *testing.T) {
	a := &scriptedClient{venue: types.VenuePolymarketlike, failPlace: true}
	b := &scriptedClient{venue: types.VenueKalshilike, fillQty: 50}

	results := make(chan types.ExecutionResult, 1)

	r := New(Config{
		Clients:      map[types.Venue]venue.Client{types.VenuePolymarketlike: a, types.VenueKalshilike: b},
		FeeCurve:     feemodel.DefaultCurve(),
		Slots:        1,
		MinHedgeSize: 1,
		PollInterval: time.Millisecond,
		PollTimeout:  time.Second,
		Logger:       zap.NewNop(),
		Results:      results,
	})

	r.execute(context.Background(), testOpp())

	select {
	case res := <-results:
		assert.False(t, res.Success)
		assert.Nil(t, res.FirstLeg)
	case <-time.After(time.Second):
		t.Fatal("expected failure result")
	}
}
