// Package polymarketlike is the Venue A adapter: a CLOB-style REST API
// authenticated with HMAC request signing plus EIP-712 order signing, the
// fee-bearing venue of the fee model (internal/feemodel). Grounded on the
// teacher's internal/execution/order_client.go and internal/discovery/client.go.
package polymarketlike

import (
	"crypto/ecdsa"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/polymarket/go-order-utils/pkg/builder"
	"github.com/polymarket/go-order-utils/pkg/model"
	"go.uber.org/zap"

	"github.com/mselser95/crossmkt-arb/internal/venue"
	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// Config holds the credentials and endpoints for one Venue A account.
type Config struct {
	GammaBaseURL  string
	CLOBBaseURL   string
	APIKey        string
	Secret        string
	Passphrase    string
	PrivateKey    string
	Address       string
	ProxyAddress  string
	SignatureType int
}

// Client implements venue.Client against a CLOB-style REST API.
type Client struct {
	cfg           Config
	httpClient    *http.Client
	privateKey    *ecdsa.PrivateKey
	address       string
	proxyAddress  string
	signatureType model.SignatureType
	orderBuilder  builder.ExchangeOrderBuilder
	logger        *zap.Logger
	retryCfg      venue.RetryConfig
}

var _ venue.Client = (*Client)(nil)

// New builds a Venue A client, deriving the EOA address from the private
// key when Config.Address is left blank.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	address := cfg.Address
	if address == "" {
		publicKeyECDSA, ok := privateKey.Public().(*ecdsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("derive public key: unexpected key type")
		}

		address = crypto.PubkeyToAddress(*publicKeyECDSA).Hex()
	}

	chainID := int64(137) // Polygon mainnet
	orderBuilder := builder.NewExchangeOrderBuilderImpl(bigFromInt64(chainID), nil)

	if cfg.GammaBaseURL == "" {
		cfg.GammaBaseURL = "https://gamma-api.polymarket.com"
	}

	if cfg.CLOBBaseURL == "" {
		cfg.CLOBBaseURL = "https://clob.polymarket.com"
	}

	return &Client{
		cfg:           cfg,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		privateKey:    privateKey,
		address:       address,
		proxyAddress:  cfg.ProxyAddress,
		signatureType: model.SignatureType(cfg.SignatureType),
		orderBuilder:  orderBuilder,
		logger:        logger,
		retryCfg:      venue.DefaultRetryConfig(),
	}, nil
}

// Venue identifies this adapter's venue in typed records.
func (c *Client) Venue() types.Venue {
	return types.VenuePolymarketlike
}

func (c *Client) makerAddress() string {
	if c.proxyAddress != "" {
		return c.proxyAddress
	}

	return c.address
}
