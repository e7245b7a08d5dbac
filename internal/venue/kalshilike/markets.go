package kalshilike

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mselser95/crossmkt-arb/internal/venue"
	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// ListActiveMarkets lists every open market and converts each into a
// types.VenueMarket with its YES/NO tokens.
func (c *Client) ListActiveMarkets(ctx context.Context) types.Result[[]types.VenueMarket] {
	var markets []marketJSON

	failure := venue.FetchWithRetry(ctx, c.logger, c.retryCfg, c.Venue(), "ListActiveMarkets", func() (*types.Failure, error) {
		fetched, statusCode, err := c.fetchMarkets(ctx)
		if err != nil {
			return &types.Failure{Kind: venue.ClassifyHTTPError(statusCode, err), Venue: c.Venue(), Op: "ListActiveMarkets", Message: "fetch markets", Cause: err}, nil
		}

		markets = fetched

		return nil, nil
	})
	if failure != nil {
		return types.Err[[]types.VenueMarket](failure)
	}

	out := make([]types.VenueMarket, 0, len(markets))

	for _, m := range markets {
		if m.Status != "active" {
			continue
		}

		closeTime, _ := time.Parse(time.RFC3339, m.CloseTime)

		vm := types.VenueMarket{
			Venue:    c.Venue(),
			MarketID: m.Ticker,
			Question: m.Title,
			EndDate:  closeTime,
			Active:   true,
			YesToken: types.Token{
				Venue:         c.Venue(),
				MarketID:      m.Ticker,
				TokenID:       m.Ticker,
				OutcomeLabel:  types.OutcomeYes,
				TickSize:      0.01,
				MinOrderSize:  float64(m.MinOrderSize),
				PriceDecimals: 2,
			},
			NoToken: types.Token{
				Venue:         c.Venue(),
				MarketID:      m.Ticker,
				TokenID:       m.Ticker,
				OutcomeLabel:  types.OutcomeNo,
				TickSize:      0.01,
				MinOrderSize:  float64(m.MinOrderSize),
				PriceDecimals: 2,
			},
		}

		out = append(out, vm)
	}

	return types.Ok(out)
}

func (c *Client) fetchMarkets(ctx context.Context) ([]marketJSON, int, error) {
	reqURL := c.cfg.BaseURL + "/markets?status=active&limit=500"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header = c.authHeader()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	var parsed marketsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("unmarshal markets: %w", err)
	}

	return parsed.Markets, resp.StatusCode, nil
}
