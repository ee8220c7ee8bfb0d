package model

import "time"

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Position is the broker-reported holding for a symbol.
type Position struct {
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`
	CurrentPrice float64 `json:"current_price"`
}

// OrderRequest is a market order submitted to a broker.
type OrderRequest struct {
	Symbol   string
	Side     Side
	Quantity float64
	// RefPrice is the quote the quantity was sized against.
	RefPrice float64
	Tag      string
}

// Order is an accepted broker order.
type Order struct {
	OrderID     string    `json:"order_id"`
	Ticker      string    `json:"ticker"`
	Side        Side      `json:"side"`
	Quantity    float64   `json:"quantity"`
	Price       float64   `json:"price"`
	Total       float64   `json:"total"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Trade is a ledger row: an executed order plus what triggered it.
type Trade struct {
	Order
	Broker string  `json:"broker"`
	Source string  `json:"source"` // "loop" or "api"
	Signal Signal  `json:"signal,omitempty"`
	RSI    float64 `json:"rsi,omitempty"`
}
