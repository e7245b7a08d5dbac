package polymarketlike

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mselser95/crossmkt-arb/internal/venue"
	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// FetchBook returns the current book for one token from the /book endpoint.
func (c *Client) FetchBook(ctx context.Context, token types.Token) types.Result[types.BookSnapshot] {
	var raw bookResponse

	failure := venue.FetchWithRetry(ctx, c.logger, c.retryCfg, c.Venue(), "FetchBook", func() (*types.Failure, error) {
		fetched, statusCode, err := c.fetchBook(ctx, token.TokenID)
		if err != nil {
			return &types.Failure{Kind: venue.ClassifyHTTPError(statusCode, err), Venue: c.Venue(), Op: "FetchBook", Message: "fetch book", Cause: err}, nil
		}

		raw = fetched

		return nil, nil
	})
	if failure != nil {
		return types.Err[types.BookSnapshot](failure)
	}

	snapshot := types.BookSnapshot{
		Token:     token,
		Bids:      parseLevels(raw.Bids),
		Asks:      parseLevels(raw.Asks),
		Timestamp: time.Now(),
	}

	return types.Ok(snapshot)
}

func (c *Client) fetchBook(ctx context.Context, tokenID string) (bookResponse, int, error) {
	var out bookResponse

	reqURL := fmt.Sprintf("%s/book?token_id=%s", c.cfg.CLOBBaseURL, tokenID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return out, 0, fmt.Errorf("create request: %w", err)
	}

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
		return out, resp.StatusCode, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return out, resp.StatusCode, fmt.Errorf("unmarshal book: %w", err)
	}

	return out, resp.StatusCode, nil
}

func parseLevels(raw []levelJSON) []types.BookLevel {
	levels := make([]types.BookLevel, 0, len(raw))

	for _, lvl := range raw {
		price, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil {
			continue
		}

		size, err := strconv.ParseFloat(lvl.Size, 64)
		if err != nil {
			continue
		}

		levels = append(levels, types.BookLevel{Price: price, Size: size})
	}

	return levels
}
