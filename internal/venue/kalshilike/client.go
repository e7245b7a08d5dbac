// Package kalshilike is the Venue B adapter: an API-key authenticated REST
// market, cents-denominated (prices are integers 1-99 representing a
// probability percentage), no per-trade fee. Grounded on the pack's
// Kalshi-flavored scanner (other_examples: anishesg-KalshiSignalDashboard)
// for the cents convention, and on the teacher's discovery/client.go for
// the polling-client shape.
package kalshilike

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/crossmkt-arb/internal/venue"
	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// Config holds the credentials and endpoint for one Venue B account.
type Config struct {
	BaseURL string
	APIKey  string
}

// Client implements venue.Client against a cents-denominated REST market.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
	retryCfg   venue.RetryConfig
}

var _ venue.Client = (*Client)(nil)

// New builds a Venue B client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://trading-api.kalshi.com/trade-api/v2"
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		retryCfg:   venue.DefaultRetryConfig(),
	}
}

// Venue identifies this adapter's venue in typed records.
func (c *Client) Venue() types.Venue {
	return types.VenueKalshilike
}

func (c *Client) authHeader() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Authorization", "Bearer "+c.cfg.APIKey)

	return h
}

// centsToPrice converts a Kalshi-style integer cents price (1-99) to the
// [0,1] rational price convention every other component operates on.
func centsToPrice(cents int) float64 {
	return float64(cents) / 100.0
}

// priceToCents is the inverse of centsToPrice, rounding to the nearest cent.
func priceToCents(price float64) int {
	return int(price*100 + 0.5)
}
