package polymarketlike

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/polymarket/go-order-utils/pkg/model"

	"github.com/mselser95/crossmkt-arb/internal/venue"
	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// PlaceOrder signs and submits one order via the single-order endpoint.
func (c *Client) PlaceOrder(ctx context.Context, ticket types.OrderTicket) types.Result[types.OrderTicket] {
	sizePrecision, amountPrecision := roundingConfig(ticket.Token.TickSize)

	takerTokens := roundAmount(ticket.OrderQty, sizePrecision)
	if takerTokens < ticket.Token.MinOrderSize {
		return types.Err[types.OrderTicket](&types.Failure{
			Kind:    types.FailureValidation,
			Venue:   c.Venue(),
			Op:      "PlaceOrder",
			Message: fmt.Sprintf("order size %.4f below minimum %.4f", takerTokens, ticket.Token.MinOrderSize),
		})
	}

	makerUSD := roundAmount(takerTokens*ticket.LimitPrice, amountPrecision)

	orderData := &model.OrderData{
		Maker:         c.makerAddress(),
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenId:       ticket.Token.TokenID,
		MakerAmount:   usdToRawAmount(makerUSD),
		TakerAmount:   usdToRawAmount(takerTokens),
		Side:          sideToModel(ticket.Side),
		FeeRateBps:    "0",
		Nonce:         "0",
		Signer:        c.address,
		Expiration:    "0",
		SignatureType: c.signatureType,
	}

	signedOrder, err := c.orderBuilder.BuildSignedOrder(c.privateKey, orderData, model.CTFExchange)
	if err != nil {
		return types.Err[types.OrderTicket](&types.Failure{
			Kind:    types.FailureUnknown,
			Venue:   c.Venue(),
			Op:      "PlaceOrder",
			Message: "build signed order",
			Cause:   err,
		})
	}

	orderType := "GTC"
	if ticket.TIF == types.TIFImmediateOrCancel {
		orderType = "FOK"
	}

	var resp orderSubmissionResponse

	failure := venue.FetchWithRetry(ctx, c.logger, c.retryCfg, c.Venue(), "PlaceOrder", func() (*types.Failure, error) {
		fetched, statusCode, err := c.submitOrder(ctx, signedOrder, orderType)
		if err != nil {
			return &types.Failure{Kind: venue.ClassifyHTTPError(statusCode, err), Venue: c.Venue(), Op: "PlaceOrder", Message: "submit order", Cause: err}, nil
		}

		resp = fetched

		return nil, nil
	})
	if failure != nil {
		return types.Err[types.OrderTicket](failure)
	}

	if !resp.Success {
		return types.Err[types.OrderTicket](&types.Failure{
			Kind:    types.FailureUnknown,
			Venue:   c.Venue(),
			Op:      "PlaceOrder",
			Message: resp.ErrorMsg,
		})
	}

	out := ticket
	out.VenueOrderID = resp.OrderID
	out.State = statusToOrderState(resp.Status)
	out.SubmittedAt = time.Now()
	out.LastUpdatedAt = out.SubmittedAt

	return types.Ok(out)
}

// PollOrder fetches the venue's current view of a previously placed order.
func (c *Client) PollOrder(ctx context.Context, venueOrderID string) types.Result[types.OrderTicket] {
	var resp orderQueryResponse

	failure := venue.FetchWithRetry(ctx, c.logger, c.retryCfg, c.Venue(), "PollOrder", func() (*types.Failure, error) {
		fetched, statusCode, err := c.queryOrder(ctx, venueOrderID)
		if err != nil {
			return &types.Failure{Kind: venue.ClassifyHTTPError(statusCode, err), Venue: c.Venue(), Op: "PollOrder", Message: "query order", Cause: err}, nil
		}

		resp = fetched

		return nil, nil
	})
	if failure != nil {
		return types.Err[types.OrderTicket](failure)
	}

	ticket := types.OrderTicket{
		VenueOrderID:  resp.OrderID,
		Venue:         c.Venue(),
		OrderQty:      resp.Size,
		FilledQty:     resp.SizeFilled,
		LimitPrice:    resp.Price,
		State:         statusToOrderState(resp.Status),
		LastUpdatedAt: time.Now(),
	}

	return types.Ok(ticket)
}

// CancelOrder cancels a resting order.
func (c *Client) CancelOrder(ctx context.Context, venueOrderID string) types.Result[struct{}] {
	failure := venue.FetchWithRetry(ctx, c.logger, c.retryCfg, c.Venue(), "CancelOrder", func() (*types.Failure, error) {
		statusCode, err := c.cancelOrder(ctx, venueOrderID)
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

func sideToModel(s types.Side) model.Side {
	if s == types.SideSell {
		return model.SELL
	}

	return model.BUY
}

func statusToOrderState(status string) types.OrderState {
	switch status {
	case "matched":
		return types.OrderFilled
	case "live", "delayed":
		return types.OrderOpen
	case "unmatched":
		return types.OrderRejected
	default:
		return types.OrderPendingSubmit
	}
}

func (c *Client) signedHeaders(method, requestPath string, body []byte) (http.Header, error) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	payload := timestamp + method + requestPath + string(body)

	secretBytes, err := base64.URLEncoding.DecodeString(c.cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("decode secret: %w", err)
	}

	mac := hmac.New(sha256.New, secretBytes)
	mac.Write([]byte(payload))
	signature := base64.URLEncoding.EncodeToString(mac.Sum(nil))

	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("POLY_API_KEY", c.cfg.APIKey)
	h.Set("POLY_SIGNATURE", signature)
	h.Set("POLY_TIMESTAMP", timestamp)
	h.Set("POLY_PASSPHRASE", c.cfg.Passphrase)
	h.Set("POLY_ADDRESS", c.address)

	return h, nil
}

func (c *Client) convertToOrderJSON(order *model.SignedOrder) signedOrderJSON {
	sideStr := "BUY"
	if order.Side.Uint64() == uint64(model.SELL) {
		sideStr = "SELL"
	}

	return signedOrderJSON{
		Salt:          order.Salt.Int64(),
		Maker:         order.Maker.Hex(),
		Signer:        order.Signer.Hex(),
		Taker:         order.Taker.Hex(),
		TokenID:       order.TokenId.String(),
		MakerAmount:   order.MakerAmount.String(),
		TakerAmount:   order.TakerAmount.String(),
		Side:          sideStr,
		Expiration:    order.Expiration.String(),
		Nonce:         order.Nonce.String(),
		FeeRateBps:    order.FeeRateBps.String(),
		SignatureType: int(order.SignatureType.Int64()),
		Signature:     "0x" + common.Bytes2Hex(order.Signature),
	}
}

func (c *Client) submitOrder(ctx context.Context, order *model.SignedOrder, orderType string) (orderSubmissionResponse, int, error) {
	var out orderSubmissionResponse

	reqPayload := orderSubmissionRequest{
		Order:     c.convertToOrderJSON(order),
		Owner:     c.cfg.APIKey,
		OrderType: orderType,
	}

	body, err := json.Marshal(reqPayload)
	if err != nil {
		return out, 0, fmt.Errorf("marshal request: %w", err)
	}

	requestPath := "/order"

	headers, err := c.signedHeaders(http.MethodPost, requestPath, body)
	if err != nil {
		return out, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.CLOBBaseURL+requestPath, bytes.NewReader(body))
	if err != nil {
		return out, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header = headers

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

func (c *Client) queryOrder(ctx context.Context, venueOrderID string) (orderQueryResponse, int, error) {
	var out orderQueryResponse

	requestPath := "/order/" + venueOrderID

	headers, err := c.signedHeaders(http.MethodGet, requestPath, nil)
	if err != nil {
		return out, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.CLOBBaseURL+requestPath, nil)
	if err != nil {
		return out, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header = headers

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

func (c *Client) cancelOrder(ctx context.Context, venueOrderID string) (int, error) {
	requestPath := "/order/" + venueOrderID

	headers, err := c.signedHeaders(http.MethodDelete, requestPath, nil)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.cfg.CLOBBaseURL+requestPath, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	req.Header = headers

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
