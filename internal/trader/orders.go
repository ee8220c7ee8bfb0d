// Package trader turns signals into orders: one-shot buys and sells, and the
// autonomous loop that acts on BUY/SELL signals for a watchlist.
package trader

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"SignalSentinel/internal/broker"
	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/recorder"
)

var (
	ErrNoPosition    = errors.New("no position to sell")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidTicker = errors.New("invalid ticker")
)

const (
	SourceAPI  = "api"
	SourceLoop = "loop"
)

// Orders sizes and submits market orders and records them in the ledger.
// A nil broker makes every call fail with broker.ErrNotConfigured.
type Orders struct {
	broker  broker.Broker
	ledger  recorder.Ledger
	onTrade func(model.Trade)
	log     zerolog.Logger
}

// NewOrders creates an order service. ledger may be nil.
func NewOrders(b broker.Broker, ledger recorder.Ledger, log zerolog.Logger) *Orders {
	if ledger == nil {
		ledger = recorder.NewNoopLedger()
	}
	return &Orders{broker: b, ledger: ledger, log: logger.Component(log, "orders")}
}

// OnTrade registers a callback run after every executed trade.
func (o *Orders) OnTrade(fn func(model.Trade)) { o.onTrade = fn }

// Configured reports whether a broker is attached.
func (o *Orders) Configured() bool { return o.broker != nil }

// BrokerName returns the attached broker's name, or "" without one.
func (o *Orders) BrokerName() string {
	if o.broker == nil {
		return ""
	}
	return o.broker.Name()
}

// Position returns the current holding for ticker, nil when flat.
func (o *Orders) Position(ctx context.Context, ticker string) (*model.Position, error) {
	if o.broker == nil {
		return nil, broker.ErrNotConfigured
	}
	return o.broker.Position(ctx, model.NormalizeTicker(ticker))
}

// Buy spends amount (quote currency) on ticker at market.
func (o *Orders) Buy(ctx context.Context, ticker string, amount float64) (model.Trade, error) {
	return o.buy(ctx, ticker, amount, SourceAPI, nil)
}

// Sell liquidates the whole position in ticker at market.
func (o *Orders) Sell(ctx context.Context, ticker string) (model.Trade, error) {
	return o.sell(ctx, ticker, SourceAPI, nil)
}

func (o *Orders) buy(ctx context.Context, ticker string, amount float64, source string, rec *model.SignalRecord) (model.Trade, error) {
	if o.broker == nil {
		return model.Trade{}, broker.ErrNotConfigured
	}
	symbol := model.NormalizeTicker(ticker)
	if symbol == "" {
		return model.Trade{}, ErrInvalidTicker
	}
	if amount <= 0 {
		return model.Trade{}, fmt.Errorf("%w: %v must be positive", ErrInvalidAmount, amount)
	}

	price, err := o.broker.Quote(ctx, symbol)
	if err != nil {
		return model.Trade{}, asOrderFailure(err)
	}
	qty := sizeOrder(amount, price, o.broker.Precision(symbol))
	if !qty.IsPositive() {
		return model.Trade{}, fmt.Errorf("%w: %.2f buys no %s at %.4f", ErrInvalidAmount, amount, symbol, price)
	}

	return o.submit(ctx, model.OrderRequest{
		Symbol:   symbol,
		Side:     model.SideBuy,
		Quantity: qty.InexactFloat64(),
		RefPrice: price,
		Tag:      source,
	}, source, rec)
}

func (o *Orders) sell(ctx context.Context, ticker, source string, rec *model.SignalRecord) (model.Trade, error) {
	if o.broker == nil {
		return model.Trade{}, broker.ErrNotConfigured
	}
	symbol := model.NormalizeTicker(ticker)
	if symbol == "" {
		return model.Trade{}, ErrInvalidTicker
	}

	pos, err := o.broker.Position(ctx, symbol)
	if err != nil {
		return model.Trade{}, asOrderFailure(err)
	}
	if pos == nil || pos.Quantity <= 0 {
		return model.Trade{}, fmt.Errorf("%w: %s", ErrNoPosition, symbol)
	}

	price := pos.CurrentPrice
	if price <= 0 {
		if price, err = o.broker.Quote(ctx, symbol); err != nil {
			return model.Trade{}, asOrderFailure(err)
		}
	}

	return o.submit(ctx, model.OrderRequest{
		Symbol:   symbol,
		Side:     model.SideSell,
		Quantity: pos.Quantity,
		RefPrice: price,
		Tag:      source,
	}, source, rec)
}

func (o *Orders) submit(ctx context.Context, req model.OrderRequest, source string, rec *model.SignalRecord) (model.Trade, error) {
	ord, err := o.broker.PlaceOrder(ctx, req)
	if err != nil {
		metrics.OrdersTotal.WithLabelValues(string(req.Side), "failed").Inc()
		return model.Trade{}, asOrderFailure(err)
	}
	metrics.OrdersTotal.WithLabelValues(string(req.Side), "ok").Inc()

	trade := model.Trade{Order: ord, Broker: o.broker.Name(), Source: source}
	if rec != nil {
		trade.Signal = rec.Signal
		trade.RSI = rec.RSI
	}

	// The order has executed; a ledger gap is logged, never surfaced.
	if err := o.ledger.RecordTrade(ctx, &trade); err != nil {
		metrics.LedgerFailures.Inc()
		o.log.Error().Err(err).Str("order_id", ord.OrderID).Str("ticker", ord.Ticker).Msg("trade not recorded")
	}

	o.log.Info().Str("ticker", ord.Ticker).Str("side", string(ord.Side)).Float64("quantity", ord.Quantity).
		Float64("price", ord.Price).Str("order_id", ord.OrderID).Str("source", source).Msg("trade executed")

	if o.onTrade != nil {
		o.onTrade(trade)
	}
	return trade, nil
}

// sizeOrder returns amount/price truncated to precision decimal places.
func sizeOrder(amount, price float64, precision int32) decimal.Decimal {
	if price <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(amount).Div(decimal.NewFromFloat(price)).Truncate(precision)
}

func asOrderFailure(err error) error {
	if errors.Is(err, broker.ErrOrderFailed) || errors.Is(err, broker.ErrNotConfigured) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", broker.ErrOrderFailed, err)
}
