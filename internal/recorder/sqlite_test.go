package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"SignalSentinel/internal/model"
)

func TestSQLiteLedger_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	l, err := NewSQLiteLedger(filepath.Join(t.TempDir(), "trades.db"), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	base := time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC)
	for i, side := range []model.Side{model.SideBuy, model.SideSell, model.SideBuy} {
		err := l.RecordTrade(ctx, &model.Trade{
			Order: model.Order{
				OrderID: "SIM-" + string(rune('a'+i)), Ticker: "AAPL", Side: side,
				Quantity: 2, Price: 100 + float64(i), Total: 2 * (100 + float64(i)),
				Status: "FILLED", SubmittedAt: base.Add(time.Duration(i) * time.Minute),
			},
			Broker: "paper", Source: "loop", Signal: model.Signal(side), RSI: 42,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	trades, err := l.RecentTrades(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].OrderID != "SIM-c" || trades[1].OrderID != "SIM-b" {
		t.Errorf("expected newest first, got %s, %s", trades[0].OrderID, trades[1].OrderID)
	}
	got := trades[0]
	if got.Side != model.SideBuy || got.Price != 102 || got.Broker != "paper" ||
		got.Source != "loop" || !got.SubmittedAt.Equal(base.Add(2*time.Minute)) {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestSQLiteLedger_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.db")
	ctx := context.Background()

	l, err := NewSQLiteLedger(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := l.RecordTrade(ctx, &model.Trade{Order: model.Order{OrderID: "1", Ticker: "SPY", Side: model.SideBuy}}); err != nil {
		t.Fatal(err)
	}
	l.Close()

	l, err = NewSQLiteLedger(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	trades, err := l.RecentTrades(ctx, 0)
	if err != nil || len(trades) != 1 {
		t.Fatalf("expected persisted trade, got %v %v", trades, err)
	}
}

func TestNoopLedger(t *testing.T) {
	n := NewNoopLedger()
	if err := n.RecordTrade(context.Background(), &model.Trade{}); err != nil {
		t.Errorf("record should be a no-op, got %v", err)
	}
	if _, err := n.RecentTrades(context.Background(), 5); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}
