package types

import "time"

// BookLevel is a single price level in a Book Snapshot. Size is the
// cumulative quantity available at this price or better, in shares.
type BookLevel struct {
	Price float64
	Size  float64
}

// BookSnapshot is an immutable view of one token's order book at a point in
// time. Bids are sorted descending by price, Asks ascending. Callers other
// than the Book Fetcher never mutate a BookSnapshot; a fresh one replaces it
// wholesale on every refresh.
type BookSnapshot struct {
	Token     Token
	Bids      []BookLevel
	Asks      []BookLevel
	Timestamp time.Time
}

// BestBid returns the highest bid level, or the zero value and false if the
// book has no bids.
func (s BookSnapshot) BestBid() (BookLevel, bool) {
	if len(s.Bids) == 0 {
		return BookLevel{}, false
	}

	return s.Bids[0], true
}

// BestAsk returns the lowest ask level, or the zero value and false if the
// book has no asks.
func (s BookSnapshot) BestAsk() (BookLevel, bool) {
	if len(s.Asks) == 0 {
		return BookLevel{}, false
	}

	return s.Asks[0], true
}

// Crossed reports whether the book violates best-bid < best-ask. A crossed
// or locked book is treated as unusable by downstream consumers.
func (s BookSnapshot) Crossed() bool {
	bid, okB := s.BestBid()
	ask, okA := s.BestAsk()
	if !okB || !okA {
		return false
	}

	return bid.Price >= ask.Price
}

// Stale reports whether the snapshot is older than maxAge relative to now.
func (s BookSnapshot) Stale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.Timestamp) > maxAge
}

// AskDepthAt returns the cumulative ask size available at price or better,
// 0 if no ask level qualifies.
func (s BookSnapshot) AskDepthAt(price float64) float64 {
	var depth float64
	for _, lvl := range s.Asks {
		if lvl.Price > price {
			break
		}

		depth = lvl.Size
	}

	return depth
}
