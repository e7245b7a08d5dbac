// Package immediate executes opportunities whose effective edge exceeds
// theta_immediate: cross both legs now, IOC on each side, hedge sized off
// the first leg's actual fill. Grounded on the teacher's
// internal/execution/executor.go executeLive/verifyFillsAndUpdateMetrics
// split (place now, verify fills separately) generalized from "both legs
// atomically via one venue's batch endpoint" to "place leg 1, observe its
// terminal fill, then place leg 2 sized off the observed fill" since the
// two legs now live on two different venues that cannot share an atomic
// batch call.
package immediate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/crossmkt-arb/internal/feemodel"
	"github.com/mselser95/crossmkt-arb/internal/venue"
	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// Config holds the Immediate Strategy's tunables.
type Config struct {
	Clients          map[types.Venue]venue.Client
	FeeCurve         feemodel.Curve
	Slots            int // K_immediate
	MinHedgeSize     float64
	SlippageCapTicks int
	MaxHedgeAttempts int
	PollInterval     time.Duration
	PollTimeout      time.Duration
	Logger           *zap.Logger

	// Deficits receives one event per under-filled hedge leg, consumed by
	// Reconciliation (internal/supervisor).
	Deficits chan<- types.DeficitEvent

	// Results receives one ExecutionResult per attempted opportunity,
	// terminal or aborted.
	Results chan<- types.ExecutionResult
}

// Runner consumes opportunities off a channel with Slots concurrent workers.
type Runner struct {
	cfg Config
}

// New builds a Runner.
func New(cfg Config) *Runner {
	if cfg.Slots <= 0 {
		cfg.Slots = 2
	}

	return &Runner{cfg: cfg}
}

// Run drains opportunities with cfg.Slots concurrent workers until ctx is
// canceled or the channel closes.
func (r *Runner) Run(ctx context.Context, opportunities <-chan types.Opportunity) {
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Slots; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for {
				select {
				case <-ctx.Done():
					return
				case opp, ok := <-opportunities:
					if !ok {
						return
					}

					r.execute(ctx, opp)
				}
			}
		}()
	}

	wg.Wait()
}

// execute implements §4.F steps 2-8 for one opportunity.
func (r *Runner) execute(ctx context.Context, opp types.Opportunity) {
	positionID := fmt.Sprintf("imm-%s-%d", opp.Pair.ID, opp.DetectedAt.UnixNano())

	firstToken, firstPrice, secondToken, secondPrice := r.orderLegs(opp)

	firstClient, ok := r.cfg.Clients[firstToken.Venue]
	if !ok {
		r.cfg.Logger.Error("no-client-for-venue", zap.String("venue", string(firstToken.Venue)))
		return
	}

	firstOrderQty := r.sizeLeg(firstToken.Venue, firstPrice, opp.SizeCap)

	firstTicket := types.OrderTicket{
		ID:            positionID + "-leg1",
		Venue:         firstToken.Venue,
		Token:         firstToken,
		Side:          types.SideBuy,
		TargetFillQty: opp.SizeCap,
		OrderQty:      firstOrderQty,
		LimitPrice:    firstPrice,
		TIF:           types.TIFImmediateOrCancel,
		SubmittedAt:   time.Now(),
	}

	firstResult := firstClient.PlaceOrder(ctx, firstTicket)
	if !firstResult.IsOk() {
		r.cfg.Logger.Warn("first-leg-place-failed",
			zap.String("position", positionID),
			zap.String("venue", string(firstToken.Venue)),
			zap.String("kind", firstResult.Failure.Kind.String()))
		r.report(opp, positionID, nil, nil, firstResult.Failure)

		return
	}

	placed := firstResult.Value

	final, err := r.pollUntilTerminal(ctx, firstClient, placed)
	if err != nil {
		r.cfg.Logger.Warn("first-leg-poll-failed", zap.String("position", positionID), zap.Error(err))
		r.report(opp, positionID, &placed, nil, &types.Failure{Kind: types.FailureTransient, Venue: firstToken.Venue, Op: "poll_first_leg", Message: err.Error()})

		return
	}

	f1 := r.cfg.FeeCurve.ReceivedForOrder(final.FilledQty, final.AvgFillPrice)
	if firstToken.Venue != feeChargingVenue {
		f1 = final.FilledQty
	}

	if f1 < r.cfg.MinHedgeSize {
		r.cfg.Logger.Info("first-leg-below-min-hedge-size-aborting",
			zap.String("position", positionID), zap.Float64("filled", f1))
		r.report(opp, positionID, &final, nil, nil)

		return
	}

	secondClient, ok := r.cfg.Clients[secondToken.Venue]
	if !ok {
		r.cfg.Logger.Error("no-client-for-venue", zap.String("venue", string(secondToken.Venue)))
		return
	}

	worstPrice := secondPrice + float64(r.cfg.SlippageCapTicks)*secondToken.TickSize

	secondOrderQty := r.sizeLeg(secondToken.Venue, worstPrice, f1)

	secondTicket := types.OrderTicket{
		ID:            positionID + "-leg2",
		Venue:         secondToken.Venue,
		Token:         secondToken,
		Side:          types.SideBuy,
		TargetFillQty: f1,
		OrderQty:      secondOrderQty,
		LimitPrice:    worstPrice,
		TIF:           types.TIFImmediateOrCancel,
		SubmittedAt:   time.Now(),
	}

	secondResult := secondClient.PlaceOrder(ctx, secondTicket)
	if !secondResult.IsOk() {
		r.emitDeficit(opp, positionID, secondToken, f1)
		r.report(opp, positionID, &final, nil, secondResult.Failure)

		return
	}

	secondFinal, err := r.pollUntilTerminal(ctx, secondClient, secondResult.Value)
	if err != nil {
		r.emitDeficit(opp, positionID, secondToken, f1)
		r.report(opp, positionID, &final, &secondResult.Value, &types.Failure{Kind: types.FailureTransient, Venue: secondToken.Venue, Op: "poll_second_leg", Message: err.Error()})

		return
	}

	f2 := secondFinal.FilledQty
	if f2 < f1 {
		r.emitDeficit(opp, positionID, secondToken, f1-f2)
	}

	r.report(opp, positionID, &final, &secondFinal, nil)
}

// orderLegs picks the shallower-depth side first, per §4.F step 2.
func (r *Runner) orderLegs(opp types.Opportunity) (firstToken types.Token, firstPrice float64, secondToken types.Token, secondPrice float64) {
	if opp.AskSizeA <= opp.AskSizeB {
		return opp.LegAToken, opp.AskPriceA, opp.LegBToken, opp.AskPriceB
	}

	return opp.LegBToken, opp.AskPriceB, opp.LegAToken, opp.AskPriceA
}

func (r *Runner) sizeLeg(v types.Venue, price, targetQty float64) float64 {
	if v == feeChargingVenue {
		return r.cfg.FeeCurve.SizeForTarget(targetQty, price).OrderQty
	}

	return feemodel.VenueBSizeForTarget(targetQty).OrderQty
}

func (r *Runner) emitDeficit(opp types.Opportunity, positionID string, token types.Token, qty float64) {
	if r.cfg.Deficits == nil {
		return
	}

	select {
	case r.cfg.Deficits <- types.DeficitEvent{
		PositionID: positionID,
		Pair:       opp.Pair,
		Token:      token,
		Qty:        qty,
		RawEdge:    opp.RawEdge,
		CreatedAt:  time.Now(),
	}:
	default:
		r.cfg.Logger.Warn("deficit-channel-full-dropping", zap.String("position", positionID))
	}
}

func (r *Runner) report(opp types.Opportunity, positionID string, first, second *types.OrderTicket, failure *types.Failure) {
	if r.cfg.Results == nil {
		return
	}

	result := types.ExecutionResult{
		OpportunityID: positionID,
		PairID:        opp.Pair.ID,
		ExecutedAt:    time.Now(),
		FirstLeg:      first,
		SecondLeg:     second,
		Success:       failure == nil,
		Failure:       failure,
	}

	if first != nil && second != nil {
		result.RealizedProfit = realizedProfit(opp, *first, *second)
	}

	select {
	case r.cfg.Results <- result:
	default:
		r.cfg.Logger.Warn("results-channel-full-dropping", zap.String("position", positionID))
	}
}

func realizedProfit(opp types.Opportunity, first, second types.OrderTicket) float64 {
	cost := first.AvgFillPrice*first.FilledQty + second.AvgFillPrice*second.FilledQty
	shares := first.FilledQty
	if second.FilledQty < shares {
		shares = second.FilledQty
	}

	return shares - cost
}

// pollUntilTerminal polls an order until it reaches a terminal state or
// cfg.PollTimeout elapses.
func (r *Runner) pollUntilTerminal(ctx context.Context, client venue.Client, ticket types.OrderTicket) (types.OrderTicket, error) {
	if ticket.State.Terminal() {
		return ticket, nil
	}

	deadline := time.Now().Add(r.cfg.PollTimeout)
	interval := r.cfg.PollInterval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}

	for {
		if time.Now().After(deadline) {
			return ticket, fmt.Errorf("poll timeout after %s waiting on order %s", r.cfg.PollTimeout, ticket.VenueOrderID)
		}

		select {
		case <-ctx.Done():
			return ticket, ctx.Err()
		case <-time.After(interval):
		}

		result := client.PollOrder(ctx, ticket.VenueOrderID)
		if !result.IsOk() {
			continue
		}

		ticket = result.Value
		if ticket.State.Terminal() {
			return ticket, nil
		}
	}
}

// feeChargingVenue is the venue the fee curve applies to.
const feeChargingVenue = types.VenuePolymarketlike
