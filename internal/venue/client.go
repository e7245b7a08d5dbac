// Package venue defines the shared adapter contract both trading venues
// implement, plus the retry/classification helpers every adapter embeds.
package venue

import (
	"context"

	"github.com/mselser95/crossmkt-arb/pkg/types"
)

// Client is the contract a venue adapter must satisfy. Both polymarketlike
// and kalshilike implement it; the Book Fetcher, Matcher and strategies
// only ever hold this interface, never a concrete adapter type.
type Client interface {
	Venue() types.Venue

	// ListActiveMarkets returns every currently tradeable market on this
	// venue, for the Matcher's refresh loop.
	ListActiveMarkets(ctx context.Context) types.Result[[]types.VenueMarket]

	// FetchBook returns the current order book for one token.
	FetchBook(ctx context.Context, token types.Token) types.Result[types.BookSnapshot]

	// PlaceOrder submits one order and returns the venue's initial
	// acknowledgement (order id + initial state); fill progress is
	// observed separately via PollOrder.
	PlaceOrder(ctx context.Context, ticket types.OrderTicket) types.Result[types.OrderTicket]

	// PollOrder returns the venue's current view of a previously placed
	// order, including fill progress.
	PollOrder(ctx context.Context, venueOrderID string) types.Result[types.OrderTicket]

	// CancelOrder cancels a resting order. Canceling an already-terminal
	// order is not an error.
	CancelOrder(ctx context.Context, venueOrderID string) types.Result[struct{}]
}
