package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/crossmkt-arb/internal/arbitrage"
	"github.com/mselser95/crossmkt-arb/internal/bookfetcher"
	"github.com/mselser95/crossmkt-arb/internal/circuitbreaker"
	"github.com/mselser95/crossmkt-arb/internal/matcher"
	"github.com/mselser95/crossmkt-arb/internal/storage"
	"github.com/mselser95/crossmkt-arb/internal/strategy/immediate"
	"github.com/mselser95/crossmkt-arb/internal/strategy/liquidity"
	"github.com/mselser95/crossmkt-arb/internal/tradelog"
	"github.com/mselser95/crossmkt-arb/internal/venue"
	"github.com/mselser95/crossmkt-arb/pkg/cache"
	"github.com/mselser95/crossmkt-arb/pkg/config"
	"github.com/mselser95/crossmkt-arb/pkg/healthprobe"
	"github.com/mselser95/crossmkt-arb/pkg/httpserver"
	"github.com/mselser95/crossmkt-arb/pkg/types"
	"github.com/mselser95/crossmkt-arb/pkg/wsbridge"
)

// Supervisor is the main application orchestrator: it owns every
// long-running component, routes classified Opportunities to the right
// strategy, and serves the live status used by the HTTP API.
type Supervisor struct {
	cfg    *config.Config
	logger *zap.Logger

	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server

	venueA, venueB venue.Client
	matcher        *matcher.Matcher
	fetcher        *bookfetcher.Fetcher
	scanner        *arbitrage.Scanner

	immediateRunner *immediate.Runner
	liquidityCfg    liquidity.Config
	reconciler      *Reconciler

	storage   storage.Storage
	tradeLog  *tradelog.Log
	breaker   *circuitbreaker.BalanceCircuitBreaker
	dashboard *wsbridge.Hub

	opportunities chan types.Opportunity
	results       chan types.ExecutionResult
	deficits      chan types.DeficitEvent

	mu               sync.RWMutex
	liquidityTickets map[string]*liquidity.Ticket
	lastOpps         []types.Opportunity
	venueHealth      map[types.Venue]types.VenueHealth

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ httpserver.StatusProvider = (*Supervisor)(nil)

// Opportunities returns the most recent scan's opportunity set.
func (s *Supervisor) Opportunities() []types.Opportunity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Opportunity, len(s.lastOpps))
	copy(out, s.lastOpps)

	return out
}

// Positions returns the currently active liquidity tickets as in-flight
// positions, for the status endpoint.
func (s *Supervisor) Positions() []types.PositionInFlight {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.PositionInFlight, 0, len(s.liquidityTickets))

	for id, tk := range s.liquidityTickets {
		out = append(out, types.PositionInFlight{
			ID:       fmt.Sprintf("%s:%s", id, tk.State()),
			Strategy: string(types.StrategyLiquidity),
		})
	}

	return out
}

// VenueHealth returns the last-observed health of both venues.
func (s *Supervisor) VenueHealth() []types.VenueHealth {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.VenueHealth, 0, len(s.venueHealth))
	for _, h := range s.venueHealth {
		out = append(out, h)
	}

	return out
}

func (s *Supervisor) recordVenueHealth(v types.Venue, ok bool, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.venueHealth[v]
	h.Venue = v
	h.LastCheckedAt = time.Now()

	if ok {
		h.Degraded = false
		h.ConsecutiveErrs = 0
		h.LastSuccessAt = h.LastCheckedAt
	} else {
		h.ConsecutiveErrs++
		h.Reason = reason
		if h.ConsecutiveErrs >= 3 {
			h.Degraded = true
		}
	}

	s.venueHealth[v] = h
}

// similarityCacheBudget sizes the Matcher's title-similarity memoization
// cache: generous headroom over the expected number of cross-venue market
// pairings scored per refresh.
const similarityCacheBudget = 20000

func newSimilarityCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: similarityCacheBudget * 10,
		MaxCost:     similarityCacheBudget,
		BufferItems: 64,
		Logger:      logger,
	})
}
