package polymarketlike

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mselser95/crossmkt-arb/internal/venue"
	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// ListActiveMarkets lists every active, unclosed market and converts each
// into a types.VenueMarket with its YES/NO tokens populated from the
// outcomes/clobTokenIds JSON-string-encoded fields this API returns.
func (c *Client) ListActiveMarkets(ctx context.Context) types.Result[[]types.VenueMarket] {
	var markets []gammaMarket

	failure := venue.FetchWithRetry(ctx, c.logger, c.retryCfg, c.Venue(), "ListActiveMarkets", func() (*types.Failure, error) {
		fetched, statusCode, err := c.fetchMarketsPage(ctx, 500, 0)
		if err != nil {
			return &types.Failure{Kind: venue.ClassifyHTTPError(statusCode, err), Venue: c.Venue(), Op: "ListActiveMarkets", Message: "fetch markets page", Cause: err}, nil
		}

		markets = fetched

		return nil, nil
	})
	if failure != nil {
		return types.Err[[]types.VenueMarket](failure)
	}

	out := make([]types.VenueMarket, 0, len(markets))

	for _, m := range markets {
		vm, ok := c.convertMarket(m)
		if !ok {
			continue
		}

		out = append(out, vm)
	}

	return types.Ok(out)
}

func (c *Client) fetchMarketsPage(ctx context.Context, limit, offset int) ([]gammaMarket, int, error) {
	params := url.Values{}
	params.Add("closed", "false")
	params.Add("active", "true")
	params.Add("limit", strconv.Itoa(limit))
	params.Add("offset", strconv.Itoa(offset))
	params.Add("order", "volume24hr")
	params.Add("ascending", "false")

	reqURL := fmt.Sprintf("%s/markets?%s", c.cfg.GammaBaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

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
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var markets []gammaMarket
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("unmarshal markets: %w", err)
	}

	return markets, resp.StatusCode, nil
}

func (c *Client) convertMarket(m gammaMarket) (types.VenueMarket, bool) {
	var outcomes []string
	var tokenIDs []string

	if err := json.Unmarshal([]byte(m.Outcomes), &outcomes); err != nil {
		return types.VenueMarket{}, false
	}

	if err := json.Unmarshal([]byte(m.ClobTokens), &tokenIDs); err != nil {
		return types.VenueMarket{}, false
	}

	if len(outcomes) < 2 || len(tokenIDs) < 2 {
		return types.VenueMarket{}, false
	}

	endDate, _ := time.Parse(time.RFC3339, m.EndDate)

	vm := types.VenueMarket{
		Venue:    c.Venue(),
		MarketID: m.ID,
		Question: m.Question,
		EndDate:  endDate,
		Active:   m.Active && !m.Closed,
	}

	for i, outcome := range outcomes {
		if i >= len(tokenIDs) {
			break
		}

		tok := types.Token{
			Venue:        c.Venue(),
			MarketID:     m.ID,
			TokenID:      tokenIDs[i],
			TickSize:     0.01,
			MinOrderSize: 5.0,
			PriceDecimals: 3,
		}

		switch outcome {
		case "Yes", "YES", "yes":
			tok.OutcomeLabel = types.OutcomeYes
			vm.YesToken = tok
		case "No", "NO", "no":
			tok.OutcomeLabel = types.OutcomeNo
			vm.NoToken = tok
		}
	}

	if vm.YesToken.TokenID == "" || vm.NoToken.TokenID == "" {
		return types.VenueMarket{}, false
	}

	return vm, true
}
