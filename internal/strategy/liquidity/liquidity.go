// Package liquidity implements the resting-order strategy for opportunities
// whose effective edge sits between theta_liquidity and theta_immediate:
// rest one tick better than best on one venue instead of crossing, then
// hedge whatever fills on the other venue. Grounded on the teacher's
// pkg/websocket/manager.go single-owner-goroutine-per-connection model
// (one manager goroutine owns one shard's mutable state via a private
// select loop) generalized from "one goroutine owns one WS connection" to
// "one goroutine owns one resting ticket".
package liquidity

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/crossmkt-arb/internal/bookfetcher"
	"github.com/mselser95/crossmkt-arb/internal/feemodel"
	"github.com/mselser95/crossmkt-arb/internal/venue"
	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// State is a liquidity ticket's position in the resting-order state machine.
type State string

const (
	StateIdle            State = "IDLE"
	StateResting         State = "RESTING"
	StatePartiallyFilled State = "PARTIALLY_FILLED"
	StateFilled          State = "FILLED"
	StateRepricing       State = "REPRICING"
	StateHedging         State = "HEDGING"
	StateDone            State = "DONE"
	StateCanceling       State = "CANCELING"
)

// Config holds the Liquidity Strategy's tunables.
type Config struct {
	Clients            map[types.Venue]venue.Client
	FeeCurve           feemodel.Curve
	TargetSize         float64 // LIQUIDITY_TARGET_SIZE
	ExitThreshold      float64 // theta_liquidity_exit: raw edge below which a resting ticket unwinds
	MinSize            float64 // below this remaining resting size, cancel rather than keep resting
	RepriceMinInterval time.Duration
	SlippageCapTicks   int
	Logger             *zap.Logger
	Deficits           chan<- types.DeficitEvent
	Results            chan<- types.ExecutionResult
}

// Update is one scan frame's view of a ticket's opportunity, delivered to
// its owning goroutine.
type Update struct {
	Opportunity types.Opportunity
	Frame       *bookfetcher.ScanFrame
	MaxBookAge  time.Duration
}

// Ticket owns one resting order end to end. All state is only ever
// mutated by the goroutine running Run.
type Ticket struct {
	cfg Config
	id  string

	restToken  types.Token
	hedgeToken types.Token

	state         State
	restOrderID   string
	restOrderQty  float64
	restPrice     float64
	filledAccum   float64
	hedgedAccum   float64
	lastRepriceAt time.Time
	lastOpp       types.Opportunity

	updates chan Update
	cancel  chan struct{}
}

// NewTicket builds a Ticket resting on legA, hedging on legB. The Supervisor
// assigns one Ticket per (pair, combination) that classifies as liquidity.
func NewTicket(cfg Config, id string, restToken, hedgeToken types.Token) *Ticket {
	return &Ticket{
		cfg:        cfg,
		id:         id,
		restToken:  restToken,
		hedgeToken: hedgeToken,
		state:      StateIdle,
		updates:    make(chan Update, 8),
		cancel:     make(chan struct{}),
	}
}

// Push delivers a new scan frame's view of this ticket's opportunity.
// Non-blocking: a full channel drops the update, the next frame supersedes it.
func (t *Ticket) Push(u Update) {
	select {
	case t.updates <- u:
	default:
		t.cfg.Logger.Warn("liquidity-ticket-update-dropped", zap.String("ticket", t.id))
	}
}

// Cancel requests the ticket unwind: cancel any resting order and hedge
// whatever has filled.
func (t *Ticket) Cancel() {
	close(t.cancel)
}

// State returns the ticket's current state, for diagnostics.
func (t *Ticket) State() State { return t.state }

// Run drives the ticket's state machine until ctx is canceled, Cancel is
// called, or the ticket reaches DONE.
func (t *Ticket) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			t.transitionToCanceling(ctx)
			return
		case <-t.cancel:
			t.transitionToCanceling(ctx)
			return
		case u := <-t.updates:
			t.step(ctx, u)
			if t.state == StateDone {
				return
			}
		}
	}
}

func (t *Ticket) step(ctx context.Context, u Update) {
	t.lastOpp = u.Opportunity

	switch t.state {
	case StateIdle:
		t.enterResting(ctx, u)
	case StateResting, StatePartiallyFilled:
		t.pollResting(ctx, u)
	case StateHedging:
		// hedging is synchronous within enterHedging; should not re-enter here
	}
}

func (t *Ticket) restClient() venue.Client  { return t.cfg.Clients[t.restToken.Venue] }
func (t *Ticket) hedgeClient() venue.Client { return t.cfg.Clients[t.hedgeToken.Venue] }

func (t *Ticket) scannedPrice(opp types.Opportunity) float64 {
	if t.restToken == opp.LegAToken {
		return opp.AskPriceA
	}

	return opp.AskPriceB
}

func (t *Ticket) hedgeScannedPrice(opp types.Opportunity) float64 {
	if t.hedgeToken == opp.LegAToken {
		return opp.AskPriceA
	}

	return opp.AskPriceB
}

// enterResting implements IDLE -> RESTING (§4.G).
func (t *Ticket) enterResting(ctx context.Context, u Update) {
	qTarget := u.Opportunity.SizeCap
	if t.cfg.TargetSize > 0 && t.cfg.TargetSize < qTarget {
		qTarget = t.cfg.TargetSize
	}

	book, ok := u.Frame.Get(t.restToken, u.MaxBookAge)

	pRest := t.scannedPrice(u.Opportunity)
	if ok {
		if bid, okBid := book.BestBid(); okBid {
			candidate := bid.Price + t.restToken.TickSize
			if candidate > pRest {
				pRest = candidate
			}
		}
	}

	orderQty := qTarget
	if t.restToken.Venue == feeChargingVenue {
		orderQty = t.cfg.FeeCurve.SizeForTarget(qTarget, pRest).OrderQty
	}

	ticket := types.OrderTicket{
		ID:            t.id + "-rest",
		Venue:         t.restToken.Venue,
		Token:         t.restToken,
		Side:          types.SideBuy,
		TargetFillQty: qTarget,
		OrderQty:      orderQty,
		LimitPrice:    pRest,
		TIF:           types.TIFGoodTilCanceled,
		SubmittedAt:   time.Now(),
	}

	client := t.restClient()
	if client == nil {
		t.cfg.Logger.Error("no-client-for-rest-venue", zap.String("venue", string(t.restToken.Venue)))
		return
	}

	result := client.PlaceOrder(ctx, ticket)
	if !result.IsOk() {
		t.cfg.Logger.Warn("rest-order-place-failed", zap.String("ticket", t.id), zap.String("kind", result.Failure.Kind.String()))
		return
	}

	t.restOrderID = result.Value.VenueOrderID
	t.restOrderQty = orderQty
	t.restPrice = pRest
	t.state = StateResting
	t.lastRepriceAt = time.Now()
}

// pollResting handles RESTING/PARTIALLY_FILLED: observe fills, decide
// whether to reprice, and move to HEDGING once there is something to hedge.
func (t *Ticket) pollResting(ctx context.Context, u Update) {
	client := t.restClient()
	if client == nil || t.restOrderID == "" {
		return
	}

	result := client.PollOrder(ctx, t.restOrderID)
	if result.IsOk() {
		t.filledAccum = result.Value.FilledQty

		if t.filledAccum > 0 && t.filledAccum < t.restOrderQty {
			t.state = StatePartiallyFilled
		}

		if t.filledAccum >= t.restOrderQty {
			t.state = StateFilled
		}
	}

	if t.shouldReprice(u) {
		t.reprice(ctx, u)

		return
	}

	if t.filledAccum-t.hedgedAccum > 1e-9 {
		t.enterHedging(ctx, u)
	}
}

// shouldReprice implements the RESTING -> REPRICING guard of §4.G.
func (t *Ticket) shouldReprice(u Update) bool {
	if time.Since(t.lastRepriceAt) < t.cfg.RepriceMinInterval {
		return false
	}

	if u.Opportunity.RawEdge < t.cfg.ExitThreshold {
		return true
	}

	book, ok := u.Frame.Get(t.restToken, u.MaxBookAge)
	if !ok {
		return false
	}

	bid, okBid := book.BestBid()
	if !okBid {
		return false
	}

	// outbid: someone now quotes at or better than our resting price.
	return bid.Price >= t.restPrice
}

// reprice implements REPRICING: cancel, then either re-rest at a fresh price
// or go idle if the opportunity has collapsed.
func (t *Ticket) reprice(ctx context.Context, u Update) {
	t.state = StateRepricing

	client := t.restClient()
	if client != nil && t.restOrderID != "" {
		client.CancelOrder(ctx, t.restOrderID)
	}

	t.lastRepriceAt = time.Now()

	remaining := t.restOrderQty - t.filledAccum
	if u.Opportunity.RawEdge < t.cfg.ExitThreshold || remaining < t.cfg.MinSize {
		t.state = StateIdle
		t.restOrderID = ""

		if t.filledAccum-t.hedgedAccum > 1e-9 {
			t.enterHedging(ctx, u)
		}

		return
	}

	t.enterResting(ctx, u)
}

// enterHedging implements PARTIALLY_FILLED/FILLED -> HEDGING -> DONE.
func (t *Ticket) enterHedging(ctx context.Context, u Update) {
	t.state = StateHedging

	toHedge := t.filledAccum - t.hedgedAccum

	client := t.hedgeClient()
	if client == nil {
		t.cfg.Logger.Error("no-client-for-hedge-venue", zap.String("venue", string(t.hedgeToken.Venue)))

		return
	}

	price := t.hedgeScannedPrice(u.Opportunity) + float64(t.cfg.SlippageCapTicks)*t.hedgeToken.TickSize

	orderQty := toHedge
	if t.hedgeToken.Venue == feeChargingVenue {
		orderQty = t.cfg.FeeCurve.SizeForTarget(toHedge, price).OrderQty
	}

	hedgeTicket := types.OrderTicket{
		ID:            t.id + "-hedge",
		Venue:         t.hedgeToken.Venue,
		Token:         t.hedgeToken,
		Side:          types.SideBuy,
		TargetFillQty: toHedge,
		OrderQty:      orderQty,
		LimitPrice:    price,
		TIF:           types.TIFImmediateOrCancel,
		SubmittedAt:   time.Now(),
	}

	result := client.PlaceOrder(ctx, hedgeTicket)
	if !result.IsOk() {
		t.emitDeficit(u.Opportunity, t.hedgeToken, toHedge)
		t.finish(u.Opportunity, nil, result.Failure)

		return
	}

	// PlaceOrder returns only the venue's acknowledgement; the hedge's fill
	// is read back with PollOrder.
	final := result.Value
	if polled := client.PollOrder(ctx, final.VenueOrderID); polled.IsOk() {
		final.FilledQty = polled.Value.FilledQty
		final.AvgFillPrice = polled.Value.AvgFillPrice
		final.State = polled.Value.State
	}

	t.hedgedAccum += final.FilledQty

	if final.FilledQty < toHedge {
		t.emitDeficit(u.Opportunity, t.hedgeToken, toHedge-final.FilledQty)
	}

	t.finish(u.Opportunity, &final, nil)
}

func (t *Ticket) finish(opp types.Opportunity, hedgeTicket *types.OrderTicket, failure *types.Failure) {
	t.state = StateDone

	if t.cfg.Results == nil {
		return
	}

	select {
	case t.cfg.Results <- types.ExecutionResult{
		OpportunityID: t.id,
		PairID:        opp.Pair.ID,
		ExecutedAt:    time.Now(),
		SecondLeg:     hedgeTicket,
		Success:       failure == nil,
		Failure:       failure,
	}:
	default:
		t.cfg.Logger.Warn("liquidity-results-channel-full", zap.String("ticket", t.id))
	}
}

func (t *Ticket) emitDeficit(opp types.Opportunity, token types.Token, qty float64) {
	if t.cfg.Deficits == nil {
		return
	}

	select {
	case t.cfg.Deficits <- types.DeficitEvent{
		PositionID: t.id,
		Pair:       opp.Pair,
		Token:      token,
		Qty:        qty,
		RawEdge:    opp.RawEdge,
		CreatedAt:  time.Now(),
	}:
	default:
		t.cfg.Logger.Warn("liquidity-deficit-channel-full", zap.String("ticket", t.id))
	}
}

// transitionToCanceling implements "Any -> CANCELING": cancel the resting
// order, account for whatever filled before the cancel landed, hedge it if
// anything did, and log any exposure that still can't be hedged before the
// ticket reaches DONE.
func (t *Ticket) transitionToCanceling(ctx context.Context) {
	t.state = StateCanceling

	cancelCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := t.restClient()
	if client != nil && t.restOrderID != "" {
		client.CancelOrder(cancelCtx, t.restOrderID)

		if result := client.PollOrder(cancelCtx, t.restOrderID); result.IsOk() {
			t.filledAccum = result.Value.FilledQty
		}
	}

	if t.filledAccum-t.hedgedAccum > 1e-9 {
		t.enterHedging(cancelCtx, Update{Opportunity: t.lastOpp})
	}

	if residual := t.filledAccum - t.hedgedAccum; residual > 1e-9 {
		t.cfg.Logger.Error("liquidity-ticket-residual-exposure-on-cancel",
			zap.String("ticket", t.id),
			zap.String("token", t.restToken.TokenID),
			zap.Float64("unhedged-qty", residual))
	}

	t.state = StateDone
}

// feeChargingVenue is the venue the fee curve applies to.
const feeChargingVenue = types.VenuePolymarketlike
