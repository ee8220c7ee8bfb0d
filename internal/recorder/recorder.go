// Package recorder persists executed trades.
package recorder

import (
	"context"
	"errors"

	"SignalSentinel/internal/model"
)

var (
	// ErrNotConfigured is returned by reads when no ledger is set up.
	ErrNotConfigured = errors.New("ledger not configured")
	// ErrLedgerWrite wraps any failure to persist a trade.
	ErrLedgerWrite = errors.New("ledger write failed")
)

// DefaultRecent is the row count returned when no limit is given.
const DefaultRecent = 50

// Ledger is an append-only record of trades.
type Ledger interface {
	RecordTrade(ctx context.Context, t *model.Trade) error
	// RecentTrades returns up to limit trades, newest first.
	RecentTrades(ctx context.Context, limit int) ([]model.Trade, error)
	Name() string
	Close() error
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecent
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
