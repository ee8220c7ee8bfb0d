package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/model"
)

const (
	DefaultStream = "signalsentinel:trades"
	streamMaxLen  = 10000
)

// RedisLedger appends trades to a Redis stream, one JSON payload per entry.
type RedisLedger struct {
	client *goredis.Client
	stream string
}

// NewRedisLedger connects to redisURL (redis://[:pass@]host:port/db) and pings it.
func NewRedisLedger(redisURL, stream string, log zerolog.Logger) (*RedisLedger, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if stream == "" {
		stream = DefaultStream
	}
	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	lg := logger.Component(log, "ledger")
	lg.Info().Str("addr", opts.Addr).Str("stream", stream).Msg("redis ledger connected")
	return &RedisLedger{client: client, stream: stream}, nil
}

func (r *RedisLedger) Name() string { return "redis" }

func (r *RedisLedger) RecordTrade(ctx context.Context, t *model.Trade) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrLedgerWrite, err)
	}
	err = r.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: r.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"ticker": t.Ticker,
			"side":   string(t.Side),
			"data":   payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("%w: xadd %s: %v", ErrLedgerWrite, r.stream, err)
	}
	return nil
}

func (r *RedisLedger) RecentTrades(ctx context.Context, limit int) ([]model.Trade, error) {
	msgs, err := r.client.XRevRangeN(ctx, r.stream, "+", "-", int64(clampLimit(limit))).Result()
	if err != nil {
		return nil, fmt.Errorf("xrevrange %s: %w", r.stream, err)
	}
	return decodeTrades(msgs), nil
}

// decodeTrades skips entries without a decodable data field.
func decodeTrades(msgs []goredis.XMessage) []model.Trade {
	out := make([]model.Trade, 0, len(msgs))
	for _, m := range msgs {
		raw, ok := m.Values["data"].(string)
		if !ok {
			continue
		}
		var t model.Trade
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (r *RedisLedger) Close() error {
	return r.client.Close()
}
