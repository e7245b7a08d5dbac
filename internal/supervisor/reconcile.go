// Package supervisor wires the Matcher, Book Fetcher, Opportunity
// Scanner and both strategies into one running engine, generalizing the
// teacher's internal/app three-way app.go/run.go/shutdown.go split from a
// single-venue WebSocket pipeline into the two-venue REST-polling
// pipeline this engine runs. Reconciliation (this file) is a dedicated
// consumer of deficit events handed off by both strategies: for each
// deficit it retries the hedge leg with a progressively worse limit
// price until filled or the opportunity's edge budget is exhausted.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/crossmkt-arb/internal/tradelog"
	"github.com/mselser95/crossmkt-arb/internal/venue"
	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// ReconcilerConfig holds the Reconciler's tunables.
type ReconcilerConfig struct {
	Clients      map[types.Venue]venue.Client
	MaxAttempts  int
	PollInterval time.Duration
	PollTimeout  time.Duration
	Logger       *zap.Logger

	// Results receives one ExecutionResult per deficit, terminal or
	// abandoned, mirroring the strategies' own reporting.
	Results chan<- types.ExecutionResult

	TradeLog *tradelog.Log
}

// Reconciler drains deficit events and attempts progressively more
// aggressive IOC hedges against the residual exposure.
type Reconciler struct {
	cfg ReconcilerConfig
}

// NewReconciler builds a Reconciler.
func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}

	return &Reconciler{cfg: cfg}
}

// Run drains deficits until ctx is canceled or the channel closes.
func (rc *Reconciler) Run(ctx context.Context, deficits <-chan types.DeficitEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-deficits:
			if !ok {
				return
			}

			rc.reconcile(ctx, ev)
		}
	}
}

// reconcile implements §4.H: price = best_ask + k*tick for
// k = 0, 1, 2, ..., until filled, the attempt budget is exhausted, or the
// cumulative slippage would exceed the opportunity's raw edge.
func (rc *Reconciler) reconcile(ctx context.Context, ev types.DeficitEvent) {
	client, ok := rc.cfg.Clients[ev.Token.Venue]
	if !ok {
		ReconciliationAbandonedTotal.WithLabelValues("no_client").Inc()
		rc.cfg.Logger.Error("no-client-for-venue", zap.String("venue", string(ev.Token.Venue)))

		return
	}

	remaining := ev.Qty
	anchorPrice, ok := rc.anchorPrice(ctx, client, ev.Token)

	if !ok {
		ReconciliationAbandonedTotal.WithLabelValues("no_book").Inc()
		rc.emitUnresolved(ev, remaining, nil)

		return
	}

	budget := ev.RawEdge * ev.Qty

	var lastTicket *types.OrderTicket

	for attempt := 0; attempt < rc.cfg.MaxAttempts && remaining > 1e-9; attempt++ {
		price := anchorPrice + float64(attempt)*ev.Token.TickSize
		slippage := float64(attempt) * ev.Token.TickSize * remaining

		if slippage > budget {
			ReconciliationAbandonedTotal.WithLabelValues("edge_exhausted").Inc()

			break
		}

		ticket := types.OrderTicket{
			ID:            fmt.Sprintf("%s-reconcile-%d", ev.PositionID, attempt),
			Venue:         ev.Token.Venue,
			Token:         ev.Token,
			Side:          types.SideBuy,
			TargetFillQty: remaining,
			OrderQty:      remaining,
			LimitPrice:    price,
			TIF:           types.TIFImmediateOrCancel,
			SubmittedAt:   time.Now(),
		}

		result := client.PlaceOrder(ctx, ticket)

		ReconciliationAttemptsTotal.WithLabelValues(string(ev.Token.Venue)).Inc()

		if !result.IsOk() {
			rc.cfg.Logger.Warn("reconciliation-place-failed",
				zap.String("position", ev.PositionID), zap.Int("attempt", attempt),
				zap.String("kind", result.Failure.Kind.String()))

			continue
		}

		final, err := rc.pollUntilTerminal(ctx, client, result.Value)
		if err != nil {
			rc.cfg.Logger.Warn("reconciliation-poll-failed", zap.String("position", ev.PositionID), zap.Error(err))

			continue
		}

		lastTicket = &final
		remaining -= final.FilledQty
	}

	if remaining > 1e-9 {
		ResidualExposureShares.Add(remaining)
		rc.emitUnresolved(ev, remaining, lastTicket)

		return
	}

	rc.emitResolved(ev, lastTicket)
}

func (rc *Reconciler) anchorPrice(ctx context.Context, client venue.Client, token types.Token) (float64, bool) {
	result := client.FetchBook(ctx, token)
	if !result.IsOk() {
		return 0, false
	}

	ask, ok := result.Value.BestAsk()
	if !ok {
		return 0, false
	}

	return ask.Price, true
}

func (rc *Reconciler) emitResolved(ev types.DeficitEvent, ticket *types.OrderTicket) {
	rc.report(ev, ticket, true, nil)
}

func (rc *Reconciler) emitUnresolved(ev types.DeficitEvent, residual float64, ticket *types.OrderTicket) {
	rc.cfg.Logger.Error("reconciliation-abandoned-residual-exposure",
		zap.String("position", ev.PositionID),
		zap.String("token", ev.Token.String()),
		zap.Float64("residual", residual))

	rc.report(ev, ticket, false, &types.Failure{
		Kind:    types.FailureValidation,
		Venue:   ev.Token.Venue,
		Op:      "reconcile",
		Message: fmt.Sprintf("residual exposure %.4f unresolved after %d attempts", residual, rc.cfg.MaxAttempts),
	})
}

func (rc *Reconciler) report(ev types.DeficitEvent, ticket *types.OrderTicket, success bool, failure *types.Failure) {
	result := types.ExecutionResult{
		OpportunityID: ev.PositionID,
		PairID:        ev.Pair.ID,
		ExecutedAt:    time.Now(),
		SecondLeg:     ticket,
		Success:       success,
		Failure:       failure,
	}

	if rc.cfg.TradeLog != nil {
		if err := rc.cfg.TradeLog.AppendResult(ev.PositionID, result); err != nil {
			rc.cfg.Logger.Warn("trade-log-append-failed", zap.Error(err))
		}
	}

	if rc.cfg.Results == nil {
		return
	}

	select {
	case rc.cfg.Results <- result:
	default:
		rc.cfg.Logger.Warn("results-channel-full-dropping", zap.String("position", ev.PositionID))
	}
}

func (rc *Reconciler) pollUntilTerminal(ctx context.Context, client venue.Client, ticket types.OrderTicket) (types.OrderTicket, error) {
	if ticket.State.Terminal() {
		return ticket, nil
	}

	deadline := time.Now().Add(rc.cfg.PollTimeout)
	interval := rc.cfg.PollInterval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}

	for {
		if time.Now().After(deadline) {
			return ticket, fmt.Errorf("poll timeout after %s waiting on order %s", rc.cfg.PollTimeout, ticket.VenueOrderID)
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
