package recorder

import (
	"context"

	"SignalSentinel/internal/model"
)

// NoopLedger is used when neither SQLite nor Redis is configured.
type NoopLedger struct{}

func NewNoopLedger() *NoopLedger { return &NoopLedger{} }

func (n *NoopLedger) Name() string                                        { return "none" }
func (n *NoopLedger) RecordTrade(_ context.Context, _ *model.Trade) error { return nil }
func (n *NoopLedger) Close() error                                        { return nil }

func (n *NoopLedger) RecentTrades(_ context.Context, _ int) ([]model.Trade, error) {
	return nil, ErrNotConfigured
}
