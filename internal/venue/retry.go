package venue

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// RetryConfig bounds the exponential backoff applied inside FetchWithRetry.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig is the adapters' backoff schedule: 500ms initial
// backoff, doubling per retry, capped at 8s, and at most 5 attempts in all
// (the first call plus MaxRetries retries).
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        4,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        8 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// ClassifyHTTPError maps a transport-level error or status code to a
// FailureKind. statusCode is 0 when the call never reached the server.
func ClassifyHTTPError(statusCode int, err error) types.FailureKind {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return types.FailureTransient
		}

		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "timeout") ||
			strings.Contains(msg, "connection refused") ||
			strings.Contains(msg, "connection reset") ||
			strings.Contains(msg, "eof") {
			return types.FailureTransient
		}
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		return types.FailureRateLimited
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusInternalServerError:
		return types.FailureTransient
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return types.FailureValidation
	case http.StatusPaymentRequired, http.StatusForbidden:
		return types.FailureInsufficientBalance
	}

	return types.FailureUnknown
}

// FetchWithRetry runs fn, retrying with exponential backoff while the
// failure it reports is Retryable(). Once the budget is exhausted, or fn
// reports a non-retryable failure, that failure is returned to the caller.
func FetchWithRetry(
	ctx context.Context,
	logger *zap.Logger,
	cfg RetryConfig,
	venueName types.Venue,
	op string,
	fn func() (*types.Failure, error),
) *types.Failure {
	backoff := cfg.InitialBackoff

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		failure, err := fn()
		if failure == nil && err == nil {
			return nil
		}

		if failure == nil {
			failure = &types.Failure{
				Kind:    types.FailureTransient,
				Venue:   venueName,
				Op:      op,
				Message: "transport error",
				Cause:   err,
			}
		}

		if !failure.Kind.Retryable() || attempt == cfg.MaxRetries {
			return failure
		}

		logger.Warn("venue-call-retrying",
			zap.String("venue", string(venueName)),
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", cfg.MaxRetries),
			zap.Duration("backoff", backoff),
			zap.String("kind", failure.Kind.String()))

		select {
		case <-ctx.Done():
			return &types.Failure{Kind: types.FailureTransient, Venue: venueName, Op: op, Message: "context canceled during retry", Cause: ctx.Err()}
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	return &types.Failure{Kind: types.FailureTransient, Venue: venueName, Op: op, Message: "retry budget exhausted"}
}
