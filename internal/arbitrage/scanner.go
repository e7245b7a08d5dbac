// Package arbitrage scans one scan frame against the current pair
// snapshot and emits Opportunity records for each profitable crossing
// combination, classified into the immediate or liquidity strategy.
// Generalized from the teacher's single-venue, N-outcome-within-one-market
// detectMultiOutcome (internal/arbitrage/detector.go, now superseded) into
// a two-venue, complementary-outcome scan.
package arbitrage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/crossmkt-arb/internal/bookfetcher"
	"github.com/mselser95/crossmkt-arb/internal/feemodel"
	"github.com/mselser95/crossmkt-arb/internal/matcher"
	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// Config holds the Scanner's tunables.
type Config struct {
	ImmediateThreshold float64 // theta_immediate: effective edge above which a combination is classified immediate
	ImmediateMaxEdge   float64 // immediate_max_edge_pct: effective edge above which a combination is flagged suspicious and skipped
	LiquidityThreshold float64 // theta_liquidity: effective edge above which (but below immediate) a combination is classified liquidity
	MaxPerTrade        float64 // MAX_PER_TRADE, shares
	MaxNotional        float64 // MAX_NOTIONAL, quote units
	FeeCurve           feemodel.Curve
	MaxBookAge         time.Duration
	Logger             *zap.Logger
}

// Scanner evaluates scan frames against the current pair snapshot.
type Scanner struct {
	cfg Config
}

// New builds a Scanner.
func New(cfg Config) *Scanner {
	return &Scanner{cfg: cfg}
}

// Scan evaluates every pair in snapshot against frame, returning one
// Opportunity per combination classified immediate or liquidity.
// Combinations with a missing or zero-depth book, an off-grid price, a
// suspicious edge, or an effective edge at or below the liquidity
// threshold are discarded.
func (s *Scanner) Scan(ctx context.Context, frame *bookfetcher.ScanFrame, snapshot *matcher.PairSnapshot) []types.Opportunity {
	start := time.Now()
	defer func() {
		ScanDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	var opps []types.Opportunity

	for _, pair := range snapshot.Pairs {
		for _, combo := range pair.CrossLegs() {
			opp, ok := s.evaluateCombination(pair, combo[0], combo[1], frame)
			if !ok {
				continue
			}

			opps = append(opps, opp)

			OpportunitiesDetectedTotal.Inc()
			EffectiveEdgeBPS.Observe(opp.EffectiveEdge * 10000)
			OpportunitySizeShares.Observe(opp.SizeCap)
			StrategyClassTotal.WithLabelValues(string(opp.Strategy)).Inc()
		}
	}

	return opps
}

// evaluateCombination implements §4.E steps 1-6 for one crossing
// combination: buy legA on its venue, buy legB on its venue.
func (s *Scanner) evaluateCombination(pair types.MarketPair, legA, legB types.Token, frame *bookfetcher.ScanFrame) (types.Opportunity, bool) {
	bookA, okA := frame.Get(legA, s.cfg.MaxBookAge)
	bookB, okB := frame.Get(legB, s.cfg.MaxBookAge)

	if !okA || !okB {
		OpportunitiesDiscardedTotal.WithLabelValues("missing_depth").Inc()

		return types.Opportunity{}, false
	}

	askA, okAskA := bookA.BestAsk()
	askB, okAskB := bookB.BestAsk()

	if !okAskA || !okAskB || askA.Size <= 0 || askB.Size <= 0 {
		OpportunitiesDiscardedTotal.WithLabelValues("zero_depth").Inc()

		return types.Opportunity{}, false
	}

	if !legA.OnGrid(askA.Price) || !legB.OnGrid(askB.Price) {
		OpportunitiesDiscardedTotal.WithLabelValues("off_tick_grid").Inc()

		return types.Opportunity{}, false
	}

	rawEdge := 1 - (askA.Price + askB.Price)

	notionalCap := s.cfg.MaxNotional / (askA.Price + askB.Price)

	sizeCap := min4(askA.Size, askB.Size, s.cfg.MaxPerTrade, notionalCap)
	if sizeCap <= 0 {
		OpportunitiesDiscardedTotal.WithLabelValues("zero_depth").Inc()

		return types.Opportunity{}, false
	}

	effAskA := askA.Price
	if legA.Venue == feeChargingVenue {
		effAskA = s.cfg.FeeCurve.SizeForTarget(sizeCap, askA.Price).EffectiveCost
	}

	effAskB := askB.Price
	if legB.Venue == feeChargingVenue {
		effAskB = s.cfg.FeeCurve.SizeForTarget(sizeCap, askB.Price).EffectiveCost
	}

	effectiveEdge := 1 - (effAskA + effAskB)

	daysToResolution := daysUntil(pair.EndDate)

	annualizedReturn := effectiveEdge / (askA.Price + askB.Price) * (365.0 / daysToResolution)

	opp := types.Opportunity{
		Pair:             pair,
		LegAToken:        legA,
		LegBToken:        legB,
		AskPriceA:        askA.Price,
		AskSizeA:         askA.Size,
		AskPriceB:        askB.Price,
		AskSizeB:         askB.Size,
		RawEdge:          rawEdge,
		EffectiveEdge:    effectiveEdge,
		SizeCap:          sizeCap,
		AnnualizedReturn: annualizedReturn,
		DaysToResolution: daysToResolution,
		DetectedAt:       time.Now(),
	}

	if s.cfg.ImmediateMaxEdge > 0 && effectiveEdge > s.cfg.ImmediateMaxEdge {
		opp.Strategy = types.StrategyDiscarded
		OpportunitiesDiscardedTotal.WithLabelValues("suspicious_edge").Inc()

		s.cfg.Logger.Warn("opportunity-suspicious-edge-skipped",
			zap.String("pair", pair.ID),
			zap.Float64("effective-edge", effectiveEdge),
			zap.Float64("immediate-max-edge-pct", s.cfg.ImmediateMaxEdge),
			zap.String("reason", "edge > immediate_max_edge_pct"))

		return opp, false
	}

	switch {
	case effectiveEdge > s.cfg.ImmediateThreshold:
		opp.Strategy = types.StrategyImmediate
	case effectiveEdge > s.cfg.LiquidityThreshold:
		opp.Strategy = types.StrategyLiquidity
	default:
		opp.Strategy = types.StrategyDiscarded
		OpportunitiesDiscardedTotal.WithLabelValues("below_threshold").Inc()

		return opp, false
	}

	return opp, true
}

// feeChargingVenue is the venue the fee curve applies to (Venue A, the
// only fee-bearing side of this model).
const feeChargingVenue = types.VenuePolymarketlike

func daysUntil(t time.Time) float64 {
	if t.IsZero() {
		return 1
	}

	days := time.Until(t).Hours() / 24
	if days <= 0 {
		return 1
	}

	return days
}

func min4(a, b, c, d float64) float64 {
	m := a
	if b < m {
		m = b
	}

	if c < m {
		m = c
	}

	if d < m {
		m = d
	}

	return m
}
