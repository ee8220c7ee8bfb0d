package trader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"SignalSentinel/internal/model"
	"SignalSentinel/internal/signal"
)

type fakeResolver struct {
	mu      sync.Mutex
	signals map[string]model.Signal
	calls   int
}

func (f *fakeResolver) Resolve(_ context.Context, raw string) (model.SignalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	t := model.NormalizeTicker(raw)
	s, ok := f.signals[t]
	if !ok {
		return model.SignalRecord{}, &signal.NoDataError{Ticker: t}
	}
	return model.SignalRecord{Ticker: t, Signal: s, Price: 100, RSI: 50, Origin: model.OriginFresh}, nil
}

func (f *fakeResolver) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeBroker struct {
	mu        sync.Mutex
	price     float64
	precision int32
	held      map[string]float64
	orders    []model.OrderRequest
	placeErr  error
}

func newFakeBroker(price float64) *fakeBroker {
	return &fakeBroker{price: price, precision: 4, held: map[string]float64{}}
}

func (b *fakeBroker) Name() string           { return "fake" }
func (b *fakeBroker) Precision(string) int32 { return b.precision }

func (b *fakeBroker) Quote(context.Context, string) (float64, error) { return b.price, nil }

func (b *fakeBroker) Position(_ context.Context, symbol string) (*model.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if q := b.held[symbol]; q > 0 {
		return &model.Position{Symbol: symbol, Quantity: q, CurrentPrice: b.price}, nil
	}
	return nil, nil
}

func (b *fakeBroker) PlaceOrder(_ context.Context, req model.OrderRequest) (model.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.placeErr != nil {
		return model.Order{}, b.placeErr
	}
	b.orders = append(b.orders, req)
	if req.Side == model.SideBuy {
		b.held[req.Symbol] += req.Quantity
	} else {
		delete(b.held, req.Symbol)
	}
	return model.Order{
		OrderID:  fmt.Sprintf("F-%d", len(b.orders)),
		Ticker:   req.Symbol,
		Side:     req.Side,
		Quantity: req.Quantity,
		Price:    req.RefPrice,
		Total:    req.Quantity * req.RefPrice,
		Status:   "FILLED",
	}, nil
}

func (b *fakeBroker) Orders() []model.OrderRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.OrderRequest(nil), b.orders...)
}

type fakeLedger struct {
	mu     sync.Mutex
	trades []model.Trade
	fail   bool
}

func (l *fakeLedger) Name() string { return "fake" }
func (l *fakeLedger) Close() error { return nil }

func (l *fakeLedger) RecordTrade(_ context.Context, t *model.Trade) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return errors.New("disk full")
	}
	l.trades = append(l.trades, *t)
	return nil
}

func (l *fakeLedger) RecentTrades(context.Context, int) ([]model.Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Trade(nil), l.trades...), nil
}

func (l *fakeLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.trades)
}
