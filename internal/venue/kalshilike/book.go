package kalshilike

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/mselser95/crossmkt-arb/internal/venue"
	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// FetchBook returns the current book for one token's side (YES or NO).
// The venue quotes both sides of a market from a single two-sided book:
// a YES ask at price p corresponds to a NO bid at 1-p and vice versa, so
// FetchBook derives the requested side's view from whichever side the
// wire response carries levels for.
func (c *Client) FetchBook(ctx context.Context, token types.Token) types.Result[types.BookSnapshot] {
	var raw orderbookResponse

	failure := venue.FetchWithRetry(ctx, c.logger, c.retryCfg, c.Venue(), "FetchBook", func() (*types.Failure, error) {
		fetched, statusCode, err := c.fetchOrderbook(ctx, token.MarketID)
		if err != nil {
			return &types.Failure{Kind: venue.ClassifyHTTPError(statusCode, err), Venue: c.Venue(), Op: "FetchBook", Message: "fetch orderbook", Cause: err}, nil
		}

		raw = fetched

		return nil, nil
	})
	if failure != nil {
		return types.Err[types.BookSnapshot](failure)
	}

	yesBids := levelsFromCents(raw.Orderbook.Yes)
	noBids := levelsFromCents(raw.Orderbook.No)

	var bids, asks []types.BookLevel

	if token.OutcomeLabel == types.OutcomeYes {
		bids = sortDesc(yesBids)
		asks = sortAsc(invertLevels(noBids))
	} else {
		bids = sortDesc(noBids)
		asks = sortAsc(invertLevels(yesBids))
	}

	return types.Ok(types.BookSnapshot{
		Token:     token,
		Bids:      bids,
		Asks:      asks,
		Timestamp: time.Now(),
	})
}

func (c *Client) fetchOrderbook(ctx context.Context, ticker string) (orderbookResponse, int, error) {
	var out orderbookResponse

	reqURL := fmt.Sprintf("%s/markets/%s/orderbook", c.cfg.BaseURL, ticker)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return out, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header = c.authHeader()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return out, resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return out, resp.StatusCode, fmt.Errorf("unmarshal orderbook: %w", err)
	}

	return out, resp.StatusCode, nil
}

// levelsFromCents converts [price_cents, quantity] pairs (bid levels) into
// BookLevel values on the [0,1] price grid.
func levelsFromCents(raw [][2]int) []types.BookLevel {
	out := make([]types.BookLevel, 0, len(raw))

	for _, lvl := range raw {
		out = append(out, types.BookLevel{Price: centsToPrice(lvl[0]), Size: float64(lvl[1])})
	}

	return out
}

// invertLevels converts the opposite side's bid levels into this side's
// implied ask levels via price' = 1 - price (complementary-outcome
// identity on a single two-sided book).
func invertLevels(bids []types.BookLevel) []types.BookLevel {
	out := make([]types.BookLevel, len(bids))
	for i, lvl := range bids {
		out[i] = types.BookLevel{Price: 1 - lvl.Price, Size: lvl.Size}
	}

	return out
}

func sortDesc(levels []types.BookLevel) []types.BookLevel {
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price > levels[j].Price })

	return levels
}

func sortAsc(levels []types.BookLevel) []types.BookLevel {
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price < levels[j].Price })

	return levels
}
