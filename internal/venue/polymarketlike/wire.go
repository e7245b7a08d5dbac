package polymarketlike

// orderSubmissionResponse is the response from POST /order or POST /orders.
type orderSubmissionResponse struct {
	Success      bool     `json:"success"`
	ErrorMsg     string   `json:"errorMsg"`
	OrderID      string   `json:"orderId"`
	OrderHashes  []string `json:"orderHashes"`
	Status       string   `json:"status"` // matched, live, delayed, unmatched
	TakingAmount string   `json:"takingAmount"`
	MakingAmount string   `json:"makingAmount"`
}

// signedOrderJSON is a signed order in the wire format the CLOB-style API
// expects: fields match the EIP-712 order structure after signing.
type signedOrderJSON struct {
	Salt          int64  `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Side          string `json:"side"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

type orderSubmissionRequest struct {
	Order     signedOrderJSON `json:"order"`
	Owner     string          `json:"owner"`
	OrderType string          `json:"orderType"`
}

type batchOrderRequest []orderSubmissionRequest

type batchOrderResponse []orderSubmissionResponse

// orderQueryResponse is the response from GET /order: the venue's current
// view of a previously placed order, including fill progress.
type orderQueryResponse struct {
	OrderID      string  `json:"orderID"`
	Status       string  `json:"status"`
	TokenID      string  `json:"asset_id"`
	Price        float64 `json:"price,string"`
	Size         float64 `json:"original_size,string"`
	SizeFilled   float64 `json:"size_matched,string"`
	Side         string  `json:"side"`
	MarketID     string  `json:"market"`
	Outcome      string  `json:"outcome"`
}

// gammaMarket is one entry of a Gamma-style active-markets listing.
type gammaMarket struct {
	ID         string `json:"id"`
	Question   string `json:"question"`
	Slug       string `json:"slug"`
	Closed     bool   `json:"closed"`
	Active     bool   `json:"active"`
	EndDate    string `json:"endDate"`
	Outcomes   string `json:"outcomes"`     // JSON string: "[\"Yes\", \"No\"]"
	ClobTokens string `json:"clobTokenIds"` // JSON string: "[\"token1\", \"token2\"]"
}

// bookResponse is the CLOB-style /book?token_id= response.
type bookResponse struct {
	Bids []levelJSON `json:"bids"`
	Asks []levelJSON `json:"asks"`
}

type levelJSON struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}
