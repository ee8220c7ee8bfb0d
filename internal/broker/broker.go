// Package broker places market orders and reports holdings.
package broker

import (
	"context"
	"errors"

	"SignalSentinel/internal/model"
)

var (
	// ErrNotConfigured is returned when no broker is set up.
	ErrNotConfigured = errors.New("broker not configured")
	// ErrOrderFailed wraps any rejection or transport failure from a broker.
	ErrOrderFailed = errors.New("order failed")
)

// Broker is the order-execution surface used by the trading loop and the
// order endpoints.
type Broker interface {
	Name() string
	// Precision is the number of decimal places allowed in an order quantity
	// for symbol.
	Precision(symbol string) int32
	Quote(ctx context.Context, symbol string) (float64, error)
	// Position returns nil, nil when nothing is held.
	Position(ctx context.Context, symbol string) (*model.Position, error)
	PlaceOrder(ctx context.Context, req model.OrderRequest) (model.Order, error)
}
