package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/crossmkt-arb/internal/bookfetcher"
	"github.com/mselser95/crossmkt-arb/internal/strategy/liquidity"
	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// Run starts every component and blocks until a shutdown signal or the
// context is canceled.
func (s *Supervisor) Run() error {
	s.logger.Info("supervisor-starting",
		zap.String("mode", s.cfg.Mode),
		zap.String("http-addr", ":"+s.cfg.HTTPPort))

	s.startComponents()
	s.healthChecker.SetReady(true)

	s.logger.Info("supervisor-ready")

	return s.waitForShutdown()
}

func (s *Supervisor) startComponents() {
	s.wg.Add(1)
	go s.runHTTPServer()

	s.wg.Add(1)
	go s.runMatcher()

	s.wg.Add(1)
	go s.runImmediate()

	s.wg.Add(1)
	go s.runReconciler()

	s.wg.Add(1)
	go s.runResultsDrain()

	s.wg.Add(1)
	go s.runScanLoop()
}

func (s *Supervisor) runHTTPServer() {
	defer s.wg.Done()

	if err := s.httpServer.Start(); err != nil {
		s.logger.Error("http-server-error", zap.Error(err))
	}
}

func (s *Supervisor) runMatcher() {
	defer s.wg.Done()

	if err := s.matcher.Run(s.ctx); err != nil && !errors.Is(err, s.ctx.Err()) {
		s.logger.Error("matcher-error", zap.Error(err))
	}
}

func (s *Supervisor) runImmediate() {
	defer s.wg.Done()

	s.immediateRunner.Run(s.ctx, s.opportunities)
}

func (s *Supervisor) runReconciler() {
	defer s.wg.Done()

	s.reconciler.Run(s.ctx, s.deficits)
}

func (s *Supervisor) runResultsDrain() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case result, ok := <-s.results:
			if !ok {
				return
			}

			s.persistResult(result)
		}
	}
}

func (s *Supervisor) persistResult(result types.ExecutionResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.storage.StoreResult(ctx, result); err != nil {
		s.logger.Error("storage-store-result-failed", zap.Error(err))
	}

	if err := s.tradeLog.AppendResult(result.OpportunityID, result); err != nil {
		s.logger.Error("trade-log-append-failed", zap.Error(err))
	}

	if s.breaker != nil && result.Success {
		s.breaker.RecordTrade(tradeNotional(result))
	}

	s.dashboard.Broadcast("result", result)
}

// tradeNotional sums the filled-quantity * avg-fill-price of both legs of a
// settled trade, the USDC size the circuit breaker scales its dynamic
// disable threshold against.
func tradeNotional(result types.ExecutionResult) float64 {
	var notional float64

	if result.FirstLeg != nil {
		notional += result.FirstLeg.FilledQty * result.FirstLeg.AvgFillPrice
	}

	if result.SecondLeg != nil {
		notional += result.SecondLeg.FilledQty * result.SecondLeg.AvgFillPrice
	}

	return notional
}

// runScanLoop implements the periodic scan-fetch-dispatch cycle: fetch a
// ScanFrame for every token in the current pair snapshot, scan it, and
// route each resulting Opportunity to the strategy its classification
// names.
func (s *Supervisor) runScanLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.scanOnce()
		}
	}
}

func (s *Supervisor) scanOnce() {
	snapshot := s.matcher.Snapshot()

	var tokens []types.Token
	for _, pair := range snapshot.Pairs {
		tokens = append(tokens, pair.Tokens()[:]...)
	}

	frame := s.fetcher.Fetch(s.ctx, tokens)
	s.updateVenueHealth(tokens, frame)

	opps := s.scanner.Scan(s.ctx, frame, snapshot)

	s.mu.Lock()
	s.lastOpps = opps
	s.mu.Unlock()

	for _, opp := range opps {
		if s.cfg.Mode != "live" {
			s.logger.Info("dry-run-opportunity",
				zap.String("pair", opp.Pair.ID),
				zap.String("strategy", string(opp.Strategy)),
				zap.Float64("effective-edge", opp.EffectiveEdge),
				zap.Float64("size-cap", opp.SizeCap))

			continue
		}

		s.dispatch(opp, frame)
	}

	s.dashboard.Broadcast("opportunities", opps)
	s.dashboard.Broadcast("positions", s.Positions())

	ScanCyclesTotal.Inc()
}

// updateVenueHealth marks a venue degraded once none of its tokens landed a
// fresh snapshot in the latest frame, healthy otherwise.
func (s *Supervisor) updateVenueHealth(tokens []types.Token, frame *bookfetcher.ScanFrame) {
	seen := make(map[types.Venue]bool, 2)

	for _, tok := range tokens {
		if _, ok := frame.Get(tok, s.cfg.MaxBookAge); ok {
			seen[tok.Venue] = true
		}
	}

	for _, v := range []types.Venue{types.VenuePolymarketlike, types.VenueKalshilike} {
		hasTokens := false

		for _, tok := range tokens {
			if tok.Venue == v {
				hasTokens = true

				break
			}
		}

		if !hasTokens {
			continue
		}

		s.recordVenueHealth(v, seen[v], "no-fresh-book-snapshot")
	}
}

// dispatch routes opp to the strategy its classification names, unless the
// circuit breaker currently disables trading (insufficient venue-A
// balance): per §7, that pauses new trades for this scan but lets other
// opportunities in the same cycle continue through.
func (s *Supervisor) dispatch(opp types.Opportunity, frame *bookfetcher.ScanFrame) {
	if s.breaker != nil && !s.breaker.IsEnabled() {
		s.logger.Warn("circuit-breaker-disabled-skipping-dispatch", zap.String("pair", opp.Pair.ID))
		CircuitBreakerSkipsTotal.Inc()

		return
	}

	switch opp.Strategy {
	case types.StrategyImmediate:
		select {
		case s.opportunities <- opp:
		default:
			s.logger.Warn("opportunities-channel-full-dropping", zap.String("pair", opp.Pair.ID))
		}
	case types.StrategyLiquidity:
		s.dispatchLiquidity(opp, frame)
	case types.StrategyDiscarded:
	}
}

func (s *Supervisor) dispatchLiquidity(opp types.Opportunity, frame *bookfetcher.ScanFrame) {
	key := liquidityTicketKey(opp)

	s.mu.Lock()
	ticket, ok := s.liquidityTickets[key]
	if !ok {
		ticket = liquidity.NewTicket(s.liquidityCfg, key, opp.LegAToken, opp.LegBToken)
		s.liquidityTickets[key] = ticket
		LiquidityTicketsActive.Set(float64(len(s.liquidityTickets)))

		s.wg.Add(1)

		go func() {
			defer s.wg.Done()
			ticket.Run(s.ctx)
		}()
	}
	s.mu.Unlock()

	ticket.Push(liquidity.Update{
		Opportunity: opp,
		Frame:       frame,
		MaxBookAge:  s.cfg.MaxBookAge,
	})
}

func liquidityTicketKey(opp types.Opportunity) string {
	return fmt.Sprintf("%s|%s|%s", opp.Pair.ID, opp.LegAToken.TokenID, opp.LegBToken.TokenID)
}

func (s *Supervisor) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		s.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-s.ctx.Done():
		s.logger.Info("context-canceled")
	}

	return s.Shutdown()
}
