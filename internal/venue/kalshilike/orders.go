package kalshilike

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mselser95/crossmkt-arb/internal/venue"
	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// PlaceOrder submits one order. Venue B charges no per-trade fee, so
// OrderQty is always the caller's desired target quantity verbatim.
func (c *Client) PlaceOrder(ctx context.Context, ticket types.OrderTicket) types.Result[types.OrderTicket] {
	if ticket.OrderQty < ticket.Token.MinOrderSize {
		return types.Err[types.OrderTicket](&types.Failure{
			Kind:    types.FailureValidation,
			Venue:   c.Venue(),
			Op:      "PlaceOrder",
			Message: fmt.Sprintf("order size %.4f below minimum %.4f", ticket.OrderQty, ticket.Token.MinOrderSize),
		})
	}

	side := "yes"
	if ticket.Token.OutcomeLabel == types.OutcomeNo {
		side = "no"
	}

	tif := "fill_or_kill"
	if ticket.TIF == types.TIFGoodTilCanceled {
		tif = "good_till_canceled"
	}

	req := orderRequest{
		Ticker:        ticket.Token.MarketID,
		Side:          side,
		Action:        "buy",
		Count:         int(ticket.OrderQty),
		Type:          "limit",
		TimeInForce:   tif,
		ClientOrderID: uuid.NewString(),
	}

	cents := priceToCents(ticket.LimitPrice)
	if side == "yes" {
		req.YesPrice = cents
	} else {
		req.NoPrice = cents
	}

	var resp orderResponse

	failure := venue.FetchWithRetry(ctx, c.logger, c.retryCfg, c.Venue(), "PlaceOrder", func() (*types.Failure, error) {
		fetched, statusCode, err := c.submitOrder(ctx, req)
		if err != nil {
			return &types.Failure{Kind: venue.ClassifyHTTPError(statusCode, err), Venue: c.Venue(), Op: "PlaceOrder", Message: "submit order", Cause: err}, nil
		}

		resp = fetched

		return nil, nil
	})
	if failure != nil {
		return types.Err[types.OrderTicket](failure)
	}

	out := ticket
	out.VenueOrderID = resp.Order.OrderID
	out.State = kalshiStatusToOrderState(resp.Order.Status)
	out.FilledQty = float64(resp.Order.FilledCount)
	out.SubmittedAt = time.Now()
	out.LastUpdatedAt = out.SubmittedAt

	return types.Ok(out)
}

// PollOrder fetches the venue's current view of a previously placed order.
func (c *Client) PollOrder(ctx context.Context, venueOrderID string) types.Result[types.OrderTicket] {
	var resp orderResponse

	failure := venue.FetchWithRetry(ctx, c.logger, c.retryCfg, c.Venue(), "PollOrder", func() (*types.Failure, error) {
		fetched, statusCode, err := c.getOrder(ctx, venueOrderID)
		if err != nil {
			return &types.Failure{Kind: venue.ClassifyHTTPError(statusCode, err), Venue: c.Venue(), Op: "PollOrder", Message: "get order", Cause: err}, nil
		}

		resp = fetched

		return nil, nil
	})
	if failure != nil {
		return types.Err[types.OrderTicket](failure)
	}

	ticket := types.OrderTicket{
		VenueOrderID:  resp.Order.OrderID,
		Venue:         c.Venue(),
		OrderQty:      float64(resp.Order.FilledCount + resp.Order.RemainingCount),
		FilledQty:     float64(resp.Order.FilledCount),
		State:         kalshiStatusToOrderState(resp.Order.Status),
		LastUpdatedAt: time.Now(),
	}

	return types.Ok(ticket)
}

// CancelOrder cancels a resting order.
func (c *Client) CancelOrder(ctx context.Context, venueOrderID string) types.Result[struct{}] {
	failure := venue.FetchWithRetry(ctx, c.logger, c.retryCfg, c.Venue(), "CancelOrder", func() (*types.Failure, error) {
		statusCode, err := c.deleteOrder(ctx, venueOrderID)
		if err != nil {
			return &types.Failure{Kind: venue.ClassifyHTTPError(statusCode, err), Venue: c.Venue(), Op: "CancelOrder", Message: "cancel order", Cause: err}, nil
		}

		return nil, nil
	})
	if failure != nil {
		return types.Err[struct{}](failure)
	}

	return types.Ok(struct{}{})
}

func kalshiStatusToOrderState(status string) types.OrderState {
	switch status {
	case "executed":
		return types.OrderFilled
	case "resting":
		return types.OrderOpen
	case "canceled":
		return types.OrderCanceled
	default:
		return types.OrderPendingSubmit
	}
}

func (c *Client) submitOrder(ctx context.Context, reqPayload orderRequest) (orderResponse, int, error) {
	var out orderResponse

	body, err := json.Marshal(reqPayload)
	if err != nil {
		return out, 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/portfolio/orders", bytes.NewReader(body))
	if err != nil {
		return out, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header = c.authHeader()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return out, resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, &out); err != nil {
		return out, resp.StatusCode, fmt.Errorf("unmarshal response: %w", err)
	}

	return out, resp.StatusCode, nil
}

func (c *Client) getOrder(ctx context.Context, orderID string) (orderResponse, int, error) {
	var out orderResponse

	reqURL := c.cfg.BaseURL + "/portfolio/orders/" + orderID

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
		return out, resp.StatusCode, fmt.Errorf("unmarshal response: %w", err)
	}

	return out, resp.StatusCode, nil
}

func (c *Client) deleteOrder(ctx context.Context, orderID string) (int, error) {
	reqURL := c.cfg.BaseURL + "/portfolio/orders/" + orderID

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	req.Header = c.authHeader()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)

		return resp.StatusCode, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	return resp.StatusCode, nil
}
