package broker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/trace"
)

// observed wraps a Broker with tracing and structured logging.
type observed struct {
	b   Broker
	log zerolog.Logger
}

var _ Broker = (*observed)(nil)

// Observe wraps b with a span and a log line per call.
func Observe(b Broker, log zerolog.Logger) Broker {
	return &observed{b: b, log: logger.Component(log, "broker").With().Str("broker", b.Name()).Logger()}
}

func (o *observed) Name() string                  { return o.b.Name() }
func (o *observed) Precision(symbol string) int32 { return o.b.Precision(symbol) }

func (o *observed) Quote(ctx context.Context, symbol string) (price float64, err error) {
	ctx, span := trace.StartSpan(ctx, "broker.Quote", attribute.String("symbol", symbol))
	defer func() { trace.End(span, err) }()

	price, err = o.b.Quote(ctx, symbol)
	if err != nil {
		o.log.Error().Err(err).Str("symbol", symbol).Msg("quote failed")
		return 0, err
	}
	o.log.Debug().Str("symbol", symbol).Float64("price", price).Msg("quote")
	return price, nil
}

func (o *observed) Position(ctx context.Context, symbol string) (pos *model.Position, err error) {
	ctx, span := trace.StartSpan(ctx, "broker.Position", attribute.String("symbol", symbol))
	defer func() { trace.End(span, err) }()

	pos, err = o.b.Position(ctx, symbol)
	if err != nil {
		o.log.Error().Err(err).Str("symbol", symbol).Msg("position lookup failed")
		return nil, err
	}
	ev := o.log.Debug().Str("symbol", symbol)
	if pos != nil {
		ev = ev.Float64("quantity", pos.Quantity)
	}
	ev.Bool("held", pos != nil).Msg("position")
	return pos, nil
}

func (o *observed) PlaceOrder(ctx context.Context, req model.OrderRequest) (ord model.Order, err error) {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceOrder",
		attribute.String("symbol", req.Symbol),
		attribute.String("side", string(req.Side)),
		attribute.Float64("quantity", req.Quantity),
	)
	defer func() { trace.End(span, err) }()

	o.log.Info().Str("symbol", req.Symbol).Str("side", string(req.Side)).
		Float64("quantity", req.Quantity).Str("tag", req.Tag).Msg("placing order")

	start := time.Now()
	ord, err = o.b.PlaceOrder(ctx, req)
	if err != nil {
		o.log.Error().Err(err).Str("symbol", req.Symbol).Str("side", string(req.Side)).Msg("order failed")
		return model.Order{}, err
	}
	o.log.Info().Str("symbol", req.Symbol).Str("order_id", ord.OrderID).Str("status", ord.Status).
		Dur("took", time.Since(start)).Msg("order placed")
	return ord, nil
}
