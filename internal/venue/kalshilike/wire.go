package kalshilike

// marketJSON is one entry of the venue's active-markets listing.
type marketJSON struct {
	Ticker        string `json:"ticker"`
	Title         string `json:"title"`
	Status        string `json:"status"`
	CloseTime     string `json:"close_time"`
	YesTickerID   string `json:"yes_sub_title"` // carries the yes-side identifier in this wire format
	NoTickerID    string `json:"no_sub_title"`
	MinOrderSize  int    `json:"minimum_order_size"`
}

type marketsResponse struct {
	Markets []marketJSON `json:"markets"`
	Cursor  string       `json:"cursor"`
}

// orderbookResponse is the venue's /markets/{ticker}/orderbook response:
// levels are [price_cents, quantity] pairs, cumulative at each level.
type orderbookResponse struct {
	Orderbook struct {
		Yes [][2]int `json:"yes"`
		No  [][2]int `json:"no"`
	} `json:"orderbook"`
}

type orderRequest struct {
	Ticker     string `json:"ticker"`
	Side       string `json:"side"` // "yes" or "no"
	Action     string `json:"action"` // "buy" or "sell"
	Count      int    `json:"count"`
	Type       string `json:"type"` // "limit" or "market"
	YesPrice   int    `json:"yes_price,omitempty"`
	NoPrice    int    `json:"no_price,omitempty"`
	TimeInForce string `json:"time_in_force"`
	ClientOrderID string `json:"client_order_id"`
}

type orderResponse struct {
	Order struct {
		OrderID        string `json:"order_id"`
		Status         string `json:"status"` // "resting", "canceled", "executed"
		FilledCount    int    `json:"filled_count"`
		RemainingCount int    `json:"remaining_count"`
		YesPrice       int    `json:"yes_price"`
		NoPrice        int    `json:"no_price"`
		Side           string `json:"side"`
	} `json:"order"`
}
