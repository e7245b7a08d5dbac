package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration, loaded from the environment
// (optionally via a .env file) with defaults matching every key's documented
// default.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string
	Mode     string // "dry-run" or "live"

	// Venue A (fee-bearing, polymarketlike)
	VenueAGammaURL      string
	VenueACLOBURL       string
	VenueAAPIKey        string
	VenueASecret        string
	VenueAPassphrase    string
	VenueAPrivateKey    string
	VenueAProxyAddress  string
	VenueAMaxRPS        float64

	// Venue B (fee-free, kalshilike)
	VenueBBaseURL string
	VenueBAPIKey  string
	VenueBMaxRPS  float64

	// Matcher
	MatcherRefreshInterval  time.Duration
	TitleSimilarityThresh   float64
	MaxResolutionDateDelta  time.Duration

	// Book Fetcher
	ScanInterval      time.Duration
	OrderbookBatchSize int
	MaxBookAge        time.Duration

	// Fee & Sizing Model
	FeeCurveA float64
	FeeCurveC float64
	MinFee    float64

	// Opportunity Scanner / Strategy thresholds
	ImmediateMinEdgePct      float64
	ImmediateMaxEdgePct      float64
	LiquidityMinAnnualizedPct float64
	LiquidityTargetSize      float64
	MaxPerTradeShares        float64
	MaxNotional              float64
	MaxConcurrentImmediate   int

	// Immediate strategy
	MinHedgeSize     float64
	SlippageCapTicks int
	MaxHedgeAttempts int
	PollInterval     time.Duration
	PollTimeout      time.Duration

	// Liquidity strategy
	LiquidityExitPct       float64
	LiquidityRepriceMinGap time.Duration
	LiquidityMinSize       float64

	// Circuit Breaker
	CircuitBreakerEnabled         bool
	CircuitBreakerCheckInterval   time.Duration
	CircuitBreakerTradeMultiplier float64
	CircuitBreakerMinAbsolute     float64
	CircuitBreakerHysteresisRatio float64

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string

	// Trade log
	TradeLogPath string
}

// LoadFromEnv loads configuration from environment variables with defaults,
// first loading a .env file if one is present in the working directory
// (teacher's every-cmd pattern, centralized here since this binary has a
// single entrypoint). A missing .env file is not an error.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),
		Mode:     getEnvOrDefault("MODE", "dry-run"),

		VenueAGammaURL:     getEnvOrDefault("VENUE_A_GAMMA_URL", "https://gamma-api.polymarket.com"),
		VenueACLOBURL:      getEnvOrDefault("VENUE_A_CLOB_URL", "https://clob.polymarket.com"),
		VenueAAPIKey:       os.Getenv("VENUE_A_API_KEY"),
		VenueASecret:       os.Getenv("VENUE_A_SECRET"),
		VenueAPassphrase:   os.Getenv("VENUE_A_PASSPHRASE"),
		VenueAPrivateKey:   os.Getenv("VENUE_A_PRIVATE_KEY"),
		VenueAProxyAddress: os.Getenv("VENUE_A_PROXY_ADDRESS"),
		VenueAMaxRPS:       getFloat64OrDefault("VENUE_A_MAX_RPS", 15.0), // opinion_max_rps

		VenueBBaseURL: getEnvOrDefault("VENUE_B_BASE_URL", "https://trading-api.kalshi.com"),
		VenueBAPIKey:  os.Getenv("VENUE_B_API_KEY"),
		VenueBMaxRPS:  getFloat64OrDefault("VENUE_B_MAX_RPS", 15.0),

		MatcherRefreshInterval: getDurationOrDefault("MATCHER_REFRESH_S", 300*time.Second),
		TitleSimilarityThresh:  getFloat64OrDefault("TITLE_SIMILARITY_THRESHOLD", 0.85),
		MaxResolutionDateDelta: getDurationOrDefault("MAX_RESOLUTION_DATE_DELTA_HOURS", 48*time.Hour),

		ScanInterval:       getDurationOrDefault("SCAN_INTERVAL_MS", 500*time.Millisecond),
		OrderbookBatchSize: getIntOrDefault("ORDERBOOK_BATCH_SIZE", 20),
		MaxBookAge:         getDurationOrDefault("MAX_BOOK_AGE", 2*time.Second),

		FeeCurveA: getFloat64OrDefault("FEE_CURVE_A", 0.06),
		FeeCurveC: getFloat64OrDefault("FEE_CURVE_C", 0.0025),
		MinFee:    getFloat64OrDefault("OPINION_MIN_FEE", 0.50),

		ImmediateMinEdgePct:       getFloat64OrDefault("IMMEDIATE_MIN_EDGE_PCT", 2.0),
		ImmediateMaxEdgePct:       getFloat64OrDefault("IMMEDIATE_MAX_EDGE_PCT", 50.0),
		LiquidityMinAnnualizedPct: getFloat64OrDefault("LIQUIDITY_MIN_ANNUALIZED_PCT", 20.0),
		LiquidityTargetSize:       getFloat64OrDefault("LIQUIDITY_TARGET_SIZE", 250),
		MaxPerTradeShares:         getFloat64OrDefault("MAX_PER_TRADE_SHARES", 1000),
		MaxNotional:               getFloat64OrDefault("MAX_NOTIONAL", 1000),
		MaxConcurrentImmediate:    getIntOrDefault("MAX_CONCURRENT_IMMEDIATE", 2),

		MinHedgeSize:     getFloat64OrDefault("MIN_HEDGE_SIZE", 1.0),
		SlippageCapTicks: getIntOrDefault("SLIPPAGE_CAP_TICKS", 3),
		MaxHedgeAttempts: getIntOrDefault("MAX_HEDGE_ATTEMPTS", 5),
		PollInterval:     getDurationOrDefault("ORDER_POLL_INTERVAL", 100*time.Millisecond),
		PollTimeout:      getDurationOrDefault("ORDER_POLL_TIMEOUT", 2*time.Second),

		LiquidityExitPct:       getFloat64OrDefault("LIQUIDITY_EXIT_PCT", 19.5),
		LiquidityRepriceMinGap: getDurationOrDefault("LIQUIDITY_REPRICE_MIN_GAP", 5*time.Second),
		LiquidityMinSize:       getFloat64OrDefault("LIQUIDITY_MIN_SIZE", 1.0),

		CircuitBreakerEnabled:         getBoolOrDefault("CIRCUIT_BREAKER_ENABLED", true),
		CircuitBreakerCheckInterval:   getDurationOrDefault("CIRCUIT_BREAKER_CHECK_INTERVAL", 300*time.Second),
		CircuitBreakerTradeMultiplier: getFloat64OrDefault("CIRCUIT_BREAKER_TRADE_MULTIPLIER", 3.0),
		CircuitBreakerMinAbsolute:     getFloat64OrDefault("CIRCUIT_BREAKER_MIN_ABSOLUTE", 5.0),
		CircuitBreakerHysteresisRatio: getFloat64OrDefault("CIRCUIT_BREAKER_HYSTERESIS_RATIO", 1.5),

		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "crossmkt"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "crossmkt123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "crossmkt_arb"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),

		TradeLogPath: getEnvOrDefault("TRADE_LOG_PATH", "./tradelog.jsonl"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are internally consistent.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT cannot be empty")
	}

	if c.Mode != "dry-run" && c.Mode != "live" {
		return fmt.Errorf("MODE must be 'dry-run' or 'live', got %q", c.Mode)
	}

	if c.ImmediateMinEdgePct <= 0 || c.ImmediateMaxEdgePct <= c.ImmediateMinEdgePct {
		return fmt.Errorf("IMMEDIATE_MAX_EDGE_PCT (%f) must exceed IMMEDIATE_MIN_EDGE_PCT (%f)",
			c.ImmediateMaxEdgePct, c.ImmediateMinEdgePct)
	}

	if c.LiquidityMinAnnualizedPct <= 0 {
		return fmt.Errorf("LIQUIDITY_MIN_ANNUALIZED_PCT must be positive, got %f", c.LiquidityMinAnnualizedPct)
	}

	if c.MaxPerTradeShares <= 0 {
		return fmt.Errorf("MAX_PER_TRADE_SHARES must be positive, got %f", c.MaxPerTradeShares)
	}

	if c.MaxConcurrentImmediate < 1 {
		return fmt.Errorf("MAX_CONCURRENT_IMMEDIATE must be at least 1, got %d", c.MaxConcurrentImmediate)
	}

	if c.OrderbookBatchSize < 1 {
		return fmt.Errorf("ORDERBOOK_BATCH_SIZE must be at least 1, got %d", c.OrderbookBatchSize)
	}

	if c.VenueAMaxRPS <= 0 || c.VenueBMaxRPS <= 0 {
		return errors.New("venue max RPS must be positive")
	}

	if c.StorageMode != "postgres" && c.StorageMode != "console" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'console', got %q", c.StorageMode)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}
