package supervisor

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/mselser95/crossmkt-arb/internal/arbitrage"
	"github.com/mselser95/crossmkt-arb/internal/bookfetcher"
	"github.com/mselser95/crossmkt-arb/internal/circuitbreaker"
	"github.com/mselser95/crossmkt-arb/internal/feemodel"
	"github.com/mselser95/crossmkt-arb/internal/matcher"
	"github.com/mselser95/crossmkt-arb/internal/storage"
	"github.com/mselser95/crossmkt-arb/internal/strategy/immediate"
	"github.com/mselser95/crossmkt-arb/internal/strategy/liquidity"
	"github.com/mselser95/crossmkt-arb/internal/tradelog"
	"github.com/mselser95/crossmkt-arb/internal/venue"
	"github.com/mselser95/crossmkt-arb/internal/venue/kalshilike"
	"github.com/mselser95/crossmkt-arb/internal/venue/polymarketlike"
	"github.com/mselser95/crossmkt-arb/pkg/config"
	"github.com/mselser95/crossmkt-arb/pkg/healthprobe"
	"github.com/mselser95/crossmkt-arb/pkg/httpserver"
	"github.com/mselser95/crossmkt-arb/pkg/types"
	"github.com/mselser95/crossmkt-arb/pkg/wallet"
	"github.com/mselser95/crossmkt-arb/pkg/wsbridge"
)

// New builds a Supervisor wiring every component from cfg. Network clients
// are constructed but not started; call Run to start the engine.
func New(cfg *config.Config, logger *zap.Logger) (*Supervisor, error) {
	ctx, cancel := context.WithCancel(context.Background())

	venueA, err := setupVenueA(cfg, logger)
	if err != nil {
		cancel()

		return nil, fmt.Errorf("setup venue A client: %w", err)
	}

	venueB := setupVenueB(cfg, logger)

	clients := map[types.Venue]venue.Client{
		types.VenuePolymarketlike: venueA,
		types.VenueKalshilike:     venueB,
	}

	similarityCache, err := newSimilarityCache(logger)
	if err != nil {
		cancel()

		return nil, fmt.Errorf("setup similarity cache: %w", err)
	}

	m := matcher.New(matcher.Config{
		VenueA:                 venueA,
		VenueB:                 venueB,
		RefreshInterval:        cfg.MatcherRefreshInterval,
		SimilarityThreshold:    cfg.TitleSimilarityThresh,
		MaxResolutionDateDelta: cfg.MaxResolutionDateDelta,
		Logger:                 logger,
		SimilarityCache:        similarityCache,
	})

	fetcher := bookfetcher.New(bookfetcher.Config{
		Venues: []bookfetcher.VenueLimits{
			{Client: venueA, RequestsPerSec: cfg.VenueAMaxRPS, BatchSize: cfg.OrderbookBatchSize},
			{Client: venueB, RequestsPerSec: cfg.VenueBMaxRPS, BatchSize: cfg.OrderbookBatchSize},
		},
		MaxBookAge: cfg.MaxBookAge,
		Logger:     logger,
	})

	feeCurve := feemodel.Curve{A: cfg.FeeCurveA, C: cfg.FeeCurveC, MinFee: cfg.MinFee}

	scanner := arbitrage.New(arbitrage.Config{
		ImmediateThreshold: cfg.ImmediateMinEdgePct / 100,
		ImmediateMaxEdge:   cfg.ImmediateMaxEdgePct / 100,
		LiquidityThreshold: cfg.LiquidityMinAnnualizedPct / 100,
		MaxPerTrade:        cfg.MaxPerTradeShares,
		MaxNotional:        cfg.MaxNotional,
		FeeCurve:           feeCurve,
		MaxBookAge:         cfg.MaxBookAge,
		Logger:             logger,
	})

	opportunities := make(chan types.Opportunity, 256)
	results := make(chan types.ExecutionResult, 256)
	deficits := make(chan types.DeficitEvent, 256)

	immediateRunner := immediate.New(immediate.Config{
		Clients:          clients,
		FeeCurve:         feeCurve,
		Slots:            cfg.MaxConcurrentImmediate,
		MinHedgeSize:     cfg.MinHedgeSize,
		SlippageCapTicks: cfg.SlippageCapTicks,
		MaxHedgeAttempts: cfg.MaxHedgeAttempts,
		PollInterval:     cfg.PollInterval,
		PollTimeout:      cfg.PollTimeout,
		Logger:           logger,
		Deficits:         deficits,
		Results:          results,
	})

	liquidityCfg := liquidity.Config{
		Clients:            clients,
		FeeCurve:           feeCurve,
		TargetSize:         cfg.LiquidityTargetSize,
		ExitThreshold:      cfg.LiquidityExitPct / 100,
		MinSize:            cfg.LiquidityMinSize,
		RepriceMinInterval: cfg.LiquidityRepriceMinGap,
		SlippageCapTicks:   cfg.SlippageCapTicks,
		Logger:             logger,
		Deficits:           deficits,
		Results:            results,
	}

	reconciler := NewReconciler(ReconcilerConfig{
		Clients:      clients,
		MaxAttempts:  cfg.MaxHedgeAttempts,
		PollInterval: cfg.PollInterval,
		PollTimeout:  cfg.PollTimeout,
		Logger:       logger,
		Results:      results,
	})

	arbStorage, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()

		return nil, fmt.Errorf("setup storage: %w", err)
	}

	tl, err := tradelog.Open(cfg.TradeLogPath)
	if err != nil {
		cancel()

		return nil, fmt.Errorf("open trade log: %w", err)
	}

	breaker, err := setupCircuitBreaker(ctx, cfg, logger)
	if err != nil {
		logger.Warn("circuit-breaker-unavailable", zap.Error(err))
	}

	dashboard := wsbridge.New(wsbridge.Config{
		WriteTimeout:   cfg.PollTimeout,
		SendBufferSize: 32,
		Logger:         logger,
	})

	s := &Supervisor{
		cfg:              cfg,
		logger:           logger,
		healthChecker:    healthprobe.New(),
		venueA:           venueA,
		venueB:           venueB,
		matcher:          m,
		fetcher:          fetcher,
		scanner:          scanner,
		immediateRunner:  immediateRunner,
		liquidityCfg:     liquidityCfg,
		reconciler:       reconciler,
		storage:          arbStorage,
		tradeLog:         tl,
		breaker:          breaker,
		dashboard:        dashboard,
		opportunities:    opportunities,
		results:          results,
		deficits:         deficits,
		liquidityTickets: make(map[string]*liquidity.Ticket),
		venueHealth:      make(map[types.Venue]types.VenueHealth, 2),
		ctx:              ctx,
		cancel:           cancel,
	}

	s.httpServer = httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: s.healthChecker,
		Status:        s,
		Dashboard:     dashboard,
	})

	return s, nil
}

func setupVenueA(cfg *config.Config, logger *zap.Logger) (*polymarketlike.Client, error) {
	return polymarketlike.New(polymarketlike.Config{
		GammaBaseURL: cfg.VenueAGammaURL,
		CLOBBaseURL:  cfg.VenueACLOBURL,
		APIKey:       cfg.VenueAAPIKey,
		Secret:       cfg.VenueASecret,
		Passphrase:   cfg.VenueAPassphrase,
		PrivateKey:   cfg.VenueAPrivateKey,
		ProxyAddress: cfg.VenueAProxyAddress,
	}, logger)
}

func setupVenueB(cfg *config.Config, logger *zap.Logger) *kalshilike.Client {
	return kalshilike.New(kalshilike.Config{
		BaseURL: cfg.VenueBBaseURL,
		APIKey:  cfg.VenueBAPIKey,
	}, logger)
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}

		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

func setupCircuitBreaker(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*circuitbreaker.BalanceCircuitBreaker, error) {
	if !cfg.CircuitBreakerEnabled {
		return nil, nil
	}

	if cfg.VenueAPrivateKey == "" {
		return nil, fmt.Errorf("circuit breaker enabled but VENUE_A_PRIVATE_KEY is unset")
	}

	walletClient, err := wallet.NewClient("https://polygon-rpc.com", logger)
	if err != nil {
		return nil, fmt.Errorf("create wallet client: %w", err)
	}

	address, err := walletAddressFromPrivateKey(cfg.VenueAPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("derive wallet address: %w", err)
	}

	breaker, err := circuitbreaker.New(&circuitbreaker.Config{
		CheckInterval:   cfg.CircuitBreakerCheckInterval,
		TradeMultiplier: cfg.CircuitBreakerTradeMultiplier,
		MinAbsolute:     cfg.CircuitBreakerMinAbsolute,
		HysteresisRatio: cfg.CircuitBreakerHysteresisRatio,
		WalletClient:    walletClient,
		Address:         address,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create circuit breaker: %w", err)
	}

	breaker.Start(ctx)

	return breaker, nil
}

func walletAddressFromPrivateKey(hexKey string) (common.Address, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("parse private key: %w", err)
	}

	publicKeyECDSA, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return common.Address{}, fmt.Errorf("derive public key: unexpected type")
	}

	return crypto.PubkeyToAddress(*publicKeyECDSA), nil
}
