// Package request defines the JSON request bodies accepted by the API.
package request

// ExecuteTradeRequest is the body for POST /api/trade.
type ExecuteTradeRequest struct {
	Ticker   string  `json:"ticker"`
	Action   string  `json:"action"`
	Quantity int64   `json:"quantity"`
	Price    float64 `json:"price"`
	Date     string  `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
	Note     string  `json:"note,omitempty"`
}
