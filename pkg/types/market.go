package types

import "time"

// VenueMarket is one venue's native listing for a real-world question:
// enough metadata for the Matcher to decide whether it corresponds to a
// listing on the other venue.
type VenueMarket struct {
	Venue      Venue
	MarketID   string
	Question   string
	EndDate    time.Time
	Active     bool
	YesToken   Token
	NoToken    Token
}

// MarketPair is the ordered tuple of four tokens the Matcher has bound as
// referring to the same real-world question: the YES and NO token on each
// venue. It is the unit all downstream detection and execution logic
// operates on.
type MarketPair struct {
	ID             string // stable synthetic id, derived from both market ids
	VenueAYesToken Token
	VenueANoToken  Token
	VenueBYesToken Token
	VenueBNoToken  Token
	Question       string
	EndDate        time.Time
	MatchScore     float64 // title-similarity score that bound this pair, for diagnostics
	BoundAt        time.Time
}

// Tokens returns all four tokens that make up the pair.
func (p MarketPair) Tokens() [4]Token {
	return [4]Token{p.VenueAYesToken, p.VenueANoToken, p.VenueBYesToken, p.VenueBNoToken}
}

// CrossLegs returns the two complementary crossing combinations available
// on this pair: buy YES on venue A hedged by NO on venue B, and the
// reverse. The Opportunity Scanner evaluates both.
func (p MarketPair) CrossLegs() [2][2]Token {
	return [2][2]Token{
		{p.VenueAYesToken, p.VenueBNoToken},
		{p.VenueBYesToken, p.VenueANoToken},
	}
}
