package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/model"
)

// Paper is an in-memory dry-run broker. Orders fill instantly at the quote.
// Crypto pairs trade fractionally; everything else in whole shares.
type Paper struct {
	prices    collector.Fetcher
	precision int32
	now       func() time.Time

	mu        sync.Mutex
	positions map[string]float64
}

// NewPaper creates a dry-run broker quoting from prices. precision applies to
// crypto pairs.
func NewPaper(prices collector.Fetcher, precision int32) *Paper {
	return &Paper{
		prices:    prices,
		precision: precision,
		now:       time.Now,
		positions: make(map[string]float64),
	}
}

func (p *Paper) Name() string { return "paper" }
func (p *Paper) Precision(symbol string) int32 {
	if model.IsCrypto(symbol) {
		return p.precision
	}
	return 0
}

func (p *Paper) Quote(ctx context.Context, symbol string) (float64, error) {
	price, err := p.prices.FetchCurrentPrice(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("quote %s: %w", symbol, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("quote %s: non-positive price %.4f", symbol, price)
	}
	return price, nil
}

func (p *Paper) Position(ctx context.Context, symbol string) (*model.Position, error) {
	p.mu.Lock()
	qty := p.positions[symbol]
	p.mu.Unlock()
	if qty <= 0 {
		return nil, nil
	}
	price, err := p.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return &model.Position{Symbol: symbol, Quantity: qty, CurrentPrice: price}, nil
}

func (p *Paper) PlaceOrder(ctx context.Context, req model.OrderRequest) (model.Order, error) {
	if req.Quantity <= 0 {
		return model.Order{}, fmt.Errorf("%w: quantity must be positive", ErrOrderFailed)
	}
	price := req.RefPrice
	if price <= 0 {
		q, err := p.Quote(ctx, req.Symbol)
		if err != nil {
			return model.Order{}, fmt.Errorf("%w: %v", ErrOrderFailed, err)
		}
		price = q
	}

	p.mu.Lock()
	switch req.Side {
	case model.SideBuy:
		p.positions[req.Symbol] += req.Quantity
	case model.SideSell:
		held := p.positions[req.Symbol]
		if req.Quantity > held {
			p.mu.Unlock()
			return model.Order{}, fmt.Errorf("%w: sell %.8f %s exceeds holding %.8f",
				ErrOrderFailed, req.Quantity, req.Symbol, held)
		}
		if held-req.Quantity <= 0 {
			delete(p.positions, req.Symbol)
		} else {
			p.positions[req.Symbol] = held - req.Quantity
		}
	default:
		p.mu.Unlock()
		return model.Order{}, fmt.Errorf("%w: unknown side %q", ErrOrderFailed, req.Side)
	}
	p.mu.Unlock()

	now := p.now()
	return model.Order{
		OrderID:     fmt.Sprintf("SIM-%d", now.UnixNano()),
		Ticker:      req.Symbol,
		Side:        req.Side,
		Quantity:    req.Quantity,
		Price:       price,
		Total:       req.Quantity * price,
		Status:      "FILLED",
		SubmittedAt: now,
	}, nil
}
