package broker

import (
	"context"
	"fmt"
	"strings"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"SignalSentinel/internal/model"
)

// kiteAPI is the subset of the Kite Connect client the live broker uses.
type kiteAPI interface {
	GetLTP(instruments ...string) (kiteconnect.QuoteLTP, error)
	GetPositions() (kiteconnect.Positions, error)
	PlaceOrder(variety string, orderParams kiteconnect.OrderParams) (kiteconnect.OrderResponse, error)
}

// KiteParams configures the live Zerodha broker.
type KiteParams struct {
	APIKey      string
	AccessToken string
	Exchange    string // default NSE
}

// Kite places real CNC market orders through Kite Connect.
type Kite struct {
	kc       kiteAPI
	exchange string
	now      func() time.Time
}

// NewKite creates a live broker. Both credentials are required.
func NewKite(p KiteParams) (*Kite, error) {
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, fmt.Errorf("%w: kite api key and access token required", ErrNotConfigured)
	}
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	return newKite(kc, p.Exchange), nil
}

func newKite(kc kiteAPI, exchange string) *Kite {
	if exchange == "" {
		exchange = "NSE"
	}
	return &Kite{kc: kc, exchange: strings.ToUpper(exchange), now: time.Now}
}

func (k *Kite) Name() string { return "kite" }

// Precision is zero: equity orders are whole shares.
func (k *Kite) Precision(string) int32 { return 0 }

// instrument maps a Yahoo-style ticker to exchange and tradingsymbol.
// RELIANCE.NS -> NSE/RELIANCE, TCS.BO -> BSE/TCS, INFY -> <default>/INFY.
func (k *Kite) instrument(symbol string) (exchange, tradingsymbol string) {
	s := strings.ToUpper(symbol)
	switch {
	case strings.HasSuffix(s, ".NS"):
		return "NSE", strings.TrimSuffix(s, ".NS")
	case strings.HasSuffix(s, ".BO"):
		return "BSE", strings.TrimSuffix(s, ".BO")
	}
	return k.exchange, s
}

func (k *Kite) Quote(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	exch, ts := k.instrument(symbol)
	key := exch + ":" + ts
	ltp, err := k.kc.GetLTP(key)
	if err != nil {
		return 0, fmt.Errorf("kite ltp %s: %w", key, err)
	}
	q, ok := ltp[key]
	if !ok || q.LastPrice <= 0 {
		return 0, fmt.Errorf("kite ltp %s: no price", key)
	}
	return q.LastPrice, nil
}

func (k *Kite) Position(ctx context.Context, symbol string) (*model.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	exch, ts := k.instrument(symbol)
	positions, err := k.kc.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("kite positions: %w", err)
	}
	for _, p := range positions.Net {
		if p.Tradingsymbol == ts && p.Exchange == exch && p.Quantity > 0 {
			return &model.Position{
				Symbol:       symbol,
				Quantity:     float64(p.Quantity),
				CurrentPrice: p.LastPrice,
			}, nil
		}
	}
	return nil, nil
}

func (k *Kite) PlaceOrder(ctx context.Context, req model.OrderRequest) (model.Order, error) {
	if err := ctx.Err(); err != nil {
		return model.Order{}, err
	}
	qty := int(req.Quantity)
	if qty <= 0 {
		return model.Order{}, fmt.Errorf("%w: kite quantity must be a positive whole number, got %v", ErrOrderFailed, req.Quantity)
	}
	exch, ts := k.instrument(req.Symbol)

	resp, err := k.kc.PlaceOrder("regular", kiteconnect.OrderParams{
		Exchange:        exch,
		Tradingsymbol:   ts,
		Validity:        "DAY",
		Product:         "CNC",
		OrderType:       "MARKET",
		TransactionType: string(req.Side),
		Quantity:        qty,
		Tag:             req.Tag,
	})
	if err != nil {
		return model.Order{}, fmt.Errorf("%w: kite %s %d %s: %v", ErrOrderFailed, req.Side, qty, ts, err)
	}

	return model.Order{
		OrderID:     resp.OrderID,
		Ticker:      req.Symbol,
		Side:        req.Side,
		Quantity:    float64(qty),
		Price:       req.RefPrice,
		Total:       float64(qty) * req.RefPrice,
		Status:      "SUBMITTED",
		SubmittedAt: k.now(),
	}, nil
}
