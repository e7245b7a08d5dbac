package liquidity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mselser95/crossmkt-arb/internal/bookfetcher"
	"github.com/mselser95/crossmkt-arb/internal/feemodel"
	"github.com/mselser95/crossmkt-arb/internal/venue"
	"github.com/mselser95/crossmkt-arb/pkg/types"
)

type fakeVenueClient struct {
	venue     types.Venue
	filledQty float64
	placed    []types.OrderTicket
}

func (f *fakeVenueClient) Venue() types.Venue { return f.venue }
func (f *fakeVenueClient) ListActiveMarkets(ctx context.Context) types.Result[[]types.VenueMarket] {
	return types.Ok[[]types.VenueMarket](nil)
}
func (f *fakeVenueClient) FetchBook(ctx context.Context, token types.Token) types.Result[types.BookSnapshot] {
	return types.Ok(types.BookSnapshot{})
}
func (f *fakeVenueClient) PlaceOrder(ctx context.Context, t types.OrderTicket) types.Result[types.OrderTicket] {
	f.placed = append(f.placed, t)
	t.VenueOrderID = "vo-" + t.ID
	t.State = types.OrderOpen

	return types.Ok(t)
}
func (f *fakeVenueClient) PollOrder(ctx context.Context, id string) types.Result[types.OrderTicket] {
	return types.Ok(types.OrderTicket{
		VenueOrderID: id,
		State:        types.OrderPartiallyFilled,
		FilledQty:    f.filledQty,
		AvgFillPrice: 0.4,
	})
}
func (f *fakeVenueClient) CancelOrder(ctx context.Context, id string) types.Result[struct{}] {
	return types.Ok(struct{}{})
}

func testOpp() types.Opportunity {
	legA := types.Token{Venue: types.VenuePolymarketlike, MarketID: "a", TokenID: "a-yes", OutcomeLabel: types.OutcomeYes, TickSize: 0.01}
	legB := types.Token{Venue: types.VenueKalshilike, MarketID: "b", TokenID: "b-no", OutcomeLabel: types.OutcomeNo, TickSize: 0.01}

	return types.Opportunity{
		Pair:      types.MarketPair{ID: "pair-1"},
		LegAToken: legA,
		LegBToken: legB,
		AskPriceA: 0.40,
		AskSizeA:  50,
		AskPriceB: 0.40,
		AskSizeB:  100,
		RawEdge:   0.20,
		SizeCap:   50,
	}
}

func baseConfig(clients map[types.Venue]venue.Client, results chan types.ExecutionResult, deficits chan types.DeficitEvent) Config {
	return Config{
		Clients:            clients,
		FeeCurve:           feemodel.DefaultCurve(),
		TargetSize:         20,
		ExitThreshold:      0.10,
		MinSize:            1,
		RepriceMinInterval: 5 * time.Second,
		SlippageCapTicks:   2,
		Logger:             zap.NewNop(),
		Results:            results,
		Deficits:           deficits,
	}
}

func TestTicket_IdleToRestingSubmitsGTCOrder(t *testing.T) {
	a := &fakeVenueClient{venue: types.VenuePolymarketlike}
	b := &fakeVenueClient{venue: types.VenueKalshilike}

	opp := testOpp()
	cfg := baseConfig(map[types.Venue]venue.Client{types.VenuePolymarketlike: a, types.VenueKalshilike: b}, nil, nil)

	tk := NewTicket(cfg, "t1", opp.LegAToken, opp.LegBToken)

	frame := &bookfetcher.ScanFrame{Snapshots: map[string]types.BookSnapshot{}, StampedAt: time.Now()}
	tk.step(context.Background(), Update{Opportunity: opp, Frame: frame, MaxBookAge: time.Second})

	assert.Equal(t, StateResting, tk.State())
	require.Len(t, a.placed, 1)
	assert.Equal(t, types.TIFGoodTilCanceled, a.placed[0].TIF)
	assert.LessOrEqual(t, a.placed[0].TargetFillQty, 20.0)
}

func TestTicket_PartialFillTransitionsToHedging(t *testing.T) {
	a := &fakeVenueClient{venue: types.VenuePolymarketlike}
	b := &fakeVenueClient{venue: types.VenueKalshilike}

	opp := testOpp()
	cfg := baseConfig(map[types.Venue]venue.Client{types.VenuePolymarketlike: a, types.VenueKalshilike: b}, nil, nil)

	tk := NewTicket(cfg, "t1", opp.LegAToken, opp.LegBToken)

	frame := &bookfetcher.ScanFrame{Snapshots: map[string]types.BookSnapshot{}, StampedAt: time.Now()}
	update := Update{Opportunity: opp, Frame: frame, MaxBookAge: time.Second}

	tk.step(context.Background(), update)
	require.Equal(t, StateResting, tk.State())

	a.filledQty = 10 // partial fill, below orderQty
	tk.step(context.Background(), update)

	assert.Equal(t, StateDone, tk.State())
	require.Len(t, b.placed, 1)
	assert.Equal(t, types.TIFImmediateOrCancel, b.placed[0].TIF)
}

func TestTicket_RepricesWhenEdgeCollapses(t *testing.T) {
	a := &fakeVenueClient{venue: types.VenuePolymarketlike}
	b := &fakeVenueClient{venue: types.VenueKalshilike}

	opp := testOpp()
	cfg := baseConfig(map[types.Venue]venue.Client{types.VenuePolymarketlike: a, types.VenueKalshilike: b}, nil, nil)
	cfg.RepriceMinInterval = 0

	tk := NewTicket(cfg, "t1", opp.LegAToken, opp.LegBToken)

	frame := &bookfetcher.ScanFrame{Snapshots: map[string]types.BookSnapshot{}, StampedAt: time.Now()}
	tk.step(context.Background(), Update{Opportunity: opp, Frame: frame, MaxBookAge: time.Second})
	require.Equal(t, StateResting, tk.State())

	collapsed := opp
	collapsed.RawEdge = 0.01 // below ExitThreshold

	tk.step(context.Background(), Update{Opportunity: collapsed, Frame: frame, MaxBookAge: time.Second})

	assert.Equal(t, StateIdle, tk.State())
}

func TestTicket_RunProcessesFrameByFrameUntilDone(t *testing.T) {
	a := &fakeVenueClient{venue: types.VenuePolymarketlike}
	b := &fakeVenueClient{venue: types.VenueKalshilike}

	opp := testOpp()
	results := make(chan types.ExecutionResult, 1)
	cfg := baseConfig(map[types.Venue]venue.Client{types.VenuePolymarketlike: a, types.VenueKalshilike: b}, results, nil)

	tk := NewTicket(cfg, "t1", opp.LegAToken, opp.LegBToken)

	frame := &bookfetcher.ScanFrame{Snapshots: map[string]types.BookSnapshot{}, StampedAt: time.Now()}
	update := Update{Opportunity: opp, Frame: frame, MaxBookAge: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go tk.Run(ctx)

	tk.Push(update) // IDLE -> RESTING
	require.Eventually(t, func() bool { return tk.State() == StateResting }, time.Second, time.Millisecond)

	a.filledQty = 15 // partial fill observed on the next frame
	tk.Push(update)  // RESTING -> PARTIALLY_FILLED -> HEDGING -> DONE

	require.Eventually(t, func() bool { return len(results) == 1 }, time.Second, time.Millisecond)
}

func TestTicket_CancelHedgesResidualFillBeforeDone(t *testing.T) {
	a := &fakeVenueClient{venue: types.VenuePolymarketlike}
	b := &fakeVenueClient{venue: types.VenueKalshilike}

	opp := testOpp()
	results := make(chan types.ExecutionResult, 1)
	cfg := baseConfig(map[types.Venue]venue.Client{types.VenuePolymarketlike: a, types.VenueKalshilike: b}, results, nil)

	tk := NewTicket(cfg, "t1", opp.LegAToken, opp.LegBToken)

	frame := &bookfetcher.ScanFrame{Snapshots: map[string]types.BookSnapshot{}, StampedAt: time.Now()}
	update := Update{Opportunity: opp, Frame: frame, MaxBookAge: time.Second}

	tk.step(context.Background(), update)
	require.Equal(t, StateResting, tk.State())

	// the resting order filled partially before the cancel was requested
	a.filledQty = 12
	// the hedge IOC fills the whole residual
	b.filledQty = 12

	tk.transitionToCanceling(context.Background())

	assert.Equal(t, StateDone, tk.State())
	require.Len(t, b.placed, 1, "residual fill must be routed through a hedge order")
	assert.Equal(t, types.TIFImmediateOrCancel, b.placed[0].TIF)
	assert.InDelta(t, 12.0, tk.hedgedAccum, 1e-9)
	require.Len(t, results, 1)
}

func TestTicket_CancelWithNoFillSkipsHedging(t *testing.T) {
	a := &fakeVenueClient{venue: types.VenuePolymarketlike}
	b := &fakeVenueClient{venue: types.VenueKalshilike}

	opp := testOpp()
	cfg := baseConfig(map[types.Venue]venue.Client{types.VenuePolymarketlike: a, types.VenueKalshilike: b}, nil, nil)

	tk := NewTicket(cfg, "t1", opp.LegAToken, opp.LegBToken)

	frame := &bookfetcher.ScanFrame{Snapshots: map[string]types.BookSnapshot{}, StampedAt: time.Now()}
	update := Update{Opportunity: opp, Frame: frame, MaxBookAge: time.Second}

	tk.step(context.Background(), update)
	require.Equal(t, StateResting, tk.State())

	a.filledQty = 0

	tk.transitionToCanceling(context.Background())

	assert.Equal(t, StateDone, tk.State())
	assert.Empty(t, b.placed, "no fill means nothing to hedge")
}
