// Package matcher owns the pair registry: the binding of a Venue A market
// to a Venue B market believed to cover the same real-world question.
// Refreshed in place on a poll loop, grounded on the teacher's
// internal/discovery service loop shape, but published as an immutable
// copy-on-write snapshot (atomic.Pointer) rather than guarded by a
// sync.RWMutex map — the Opportunity Scanner needs one stable view per
// scan frame rather than a live map it could observe mid-mutation.
package matcher

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/crossmkt-arb/internal/venue"
	"github.com/mselser95/crossmkt-arb/pkg/cache"
	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// PairSnapshot is an immutable view of the currently bound market pairs.
type PairSnapshot struct {
	Pairs   []types.MarketPair
	BoundAt time.Time
}

// Config holds the Matcher's tunables.
type Config struct {
	VenueA                  venue.Client
	VenueB                  venue.Client
	RefreshInterval         time.Duration
	SimilarityThreshold     float64
	MaxResolutionDateDelta  time.Duration
	Logger                  *zap.Logger

	// SimilarityCache memoizes TitleSimilarity scores across refresh
	// cycles, since both venues' active-market sets are mostly stable
	// from one poll to the next and re-scoring every pair is wasted
	// work. Optional: nil disables memoization.
	SimilarityCache cache.Cache
}

// Matcher is the sole owner of the pair registry.
type Matcher struct {
	cfg      Config
	snapshot atomic.Pointer[PairSnapshot]
}

// New builds a Matcher with an empty initial snapshot.
func New(cfg Config) *Matcher {
	m := &Matcher{cfg: cfg}
	m.snapshot.Store(&PairSnapshot{Pairs: nil, BoundAt: time.Now()})

	return m
}

// Snapshot returns the current immutable pair set.
func (m *Matcher) Snapshot() *PairSnapshot {
	return m.snapshot.Load()
}

// Run polls both venues on RefreshInterval and republishes the pair
// registry. Blocks until ctx is canceled.
func (m *Matcher) Run(ctx context.Context) error {
	m.cfg.Logger.Info("matcher-starting",
		zap.Duration("refresh-interval", m.cfg.RefreshInterval),
		zap.Float64("similarity-threshold", m.cfg.SimilarityThreshold))

	if err := m.refresh(ctx); err != nil {
		m.cfg.Logger.Error("initial-refresh-failed", zap.Error(err))
	}

	ticker := time.NewTicker(m.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.cfg.Logger.Info("matcher-stopping")

			return ctx.Err()
		case <-ticker.C:
			if err := m.refresh(ctx); err != nil {
				m.cfg.Logger.Error("refresh-failed", zap.Error(err))
			}
		}
	}
}

func (m *Matcher) refresh(ctx context.Context) error {
	start := time.Now()
	defer func() {
		RefreshDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	aResult := m.cfg.VenueA.ListActiveMarkets(ctx)
	if !aResult.IsOk() {
		RefreshErrorsTotal.WithLabelValues(string(m.cfg.VenueA.Venue())).Inc()

		return fmt.Errorf("list venue A markets: %w", aResult.Failure)
	}

	bResult := m.cfg.VenueB.ListActiveMarkets(ctx)
	if !bResult.IsOk() {
		RefreshErrorsTotal.WithLabelValues(string(m.cfg.VenueB.Venue())).Inc()

		return fmt.Errorf("list venue B markets: %w", bResult.Failure)
	}

	pairs := m.bindPairs(m.Snapshot(), aResult.Value, bResult.Value)

	m.snapshot.Store(&PairSnapshot{Pairs: pairs, BoundAt: time.Now()})

	PairsBoundGauge.Set(float64(len(pairs)))
	m.cfg.Logger.Info("matcher-refreshed",
		zap.Int("venue-a-markets", len(aResult.Value)),
		zap.Int("venue-b-markets", len(bResult.Value)),
		zap.Int("pairs-bound", len(pairs)))

	return nil
}

// bindPairs re-verifies every pair bound in prior and keeps it unchanged as
// long as both sides are still listed as active — re-matching only the
// markets a closure freed up. This is what makes pairs sticky: a pair
// survives score jitter between refreshes and only breaks when one of its
// two markets actually closes. Freshly freed (and never-before-seen)
// markets are then greedily matched to their best-scoring candidate at or
// above the similarity threshold and within the resolution-date window, each
// market used at most once.
func (m *Matcher) bindPairs(prior *PairSnapshot, aMarkets, bMarkets []types.VenueMarket) []types.MarketPair {
	aByID := make(map[string]types.VenueMarket, len(aMarkets))
	for _, a := range aMarkets {
		aByID[a.MarketID] = a
	}

	bByID := make(map[string]types.VenueMarket, len(bMarkets))
	for _, b := range bMarkets {
		bByID[b.MarketID] = b
	}

	usedB := make(map[string]bool, len(bMarkets))
	boundA := make(map[string]bool, len(aMarkets))
	pairs := make([]types.MarketPair, 0, len(aMarkets))

	for _, prevPair := range prior.Pairs {
		aID := prevPair.VenueAYesToken.MarketID
		bID := prevPair.VenueBYesToken.MarketID

		a, aStillActive := aByID[aID]
		b, bStillActive := bByID[bID]

		if !aStillActive || !bStillActive {
			continue // a side closed; release both markets to fresh matching below
		}

		pairs = append(pairs, types.MarketPair{
			ID:             prevPair.ID,
			VenueAYesToken: a.YesToken,
			VenueANoToken:  a.NoToken,
			VenueBYesToken: b.YesToken,
			VenueBNoToken:  b.NoToken,
			Question:       a.Question,
			EndDate:        a.EndDate,
			MatchScore:     prevPair.MatchScore,
			BoundAt:        prevPair.BoundAt,
		})

		boundA[aID] = true
		usedB[bID] = true
	}

	for _, a := range aMarkets {
		if boundA[a.MarketID] {
			continue
		}

		bestIdx := -1
		bestScore := 0.0

		for i, b := range bMarkets {
			if usedB[b.MarketID] {
				continue
			}

			if !withinResolutionWindow(a.EndDate, b.EndDate, m.cfg.MaxResolutionDateDelta) {
				continue
			}

			score := m.scoredSimilarity(a.MarketID, a.Question, b.MarketID, b.Question)
			if score < m.cfg.SimilarityThreshold {
				continue
			}

			if bestIdx < 0 || score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		if bestIdx < 0 {
			continue
		}

		b := bMarkets[bestIdx]
		usedB[b.MarketID] = true

		pairs = append(pairs, types.MarketPair{
			ID:             a.MarketID + "|" + b.MarketID,
			VenueAYesToken: a.YesToken,
			VenueANoToken:  a.NoToken,
			VenueBYesToken: b.YesToken,
			VenueBNoToken:  b.NoToken,
			Question:       a.Question,
			EndDate:        a.EndDate,
			MatchScore:     bestScore,
			BoundAt:        time.Now(),
		})
	}

	return pairs
}

// scoredSimilarity returns TitleSimilarity(aQuestion, bQuestion), serving
// from m.cfg.SimilarityCache when configured.
func (m *Matcher) scoredSimilarity(aID, aQuestion, bID, bQuestion string) float64 {
	if m.cfg.SimilarityCache == nil {
		return TitleSimilarity(aQuestion, bQuestion)
	}

	key := aID + "|" + bID

	if cached, ok := m.cfg.SimilarityCache.Get(key); ok {
		if score, ok := cached.(float64); ok {
			return score
		}
	}

	score := TitleSimilarity(aQuestion, bQuestion)
	m.cfg.SimilarityCache.Set(key, score, m.cfg.RefreshInterval*2)

	return score
}

func withinResolutionWindow(a, b time.Time, maxDelta time.Duration) bool {
	if a.IsZero() || b.IsZero() {
		return true
	}

	delta := a.Sub(b)
	if delta < 0 {
		delta = -delta
	}

	return delta <= maxDelta
}
