package trader

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"SignalSentinel/internal/broker"
	"SignalSentinel/internal/model"
)

func newTestLoop(res *fakeResolver, b *fakeBroker, l *fakeLedger) *Loop {
	return NewLoop(res, NewOrders(b, l, zerolog.Nop()), zerolog.Nop(),
		WithInterval(time.Hour), WithBackoff(time.Hour), WithNotional(1000))
}

func TestLoopCycle_BuyWithoutPosition(t *testing.T) {
	res := &fakeResolver{signals: map[string]model.Signal{"AAPL": model.SignalBuy}}
	b, l := newFakeBroker(100), &fakeLedger{}
	loop := newTestLoop(res, b, l)

	if err := loop.cycle(context.Background(), []string{"AAPL"}); err != nil {
		t.Fatal(err)
	}
	orders := b.Orders()
	if len(orders) != 1 || orders[0].Side != model.SideBuy || orders[0].Quantity != 10 {
		t.Fatalf("expected one BUY of 10, got %+v", orders)
	}
	if l.Len() != 1 {
		t.Fatalf("expected one ledger write, got %d", l.Len())
	}
	trades, _ := l.RecentTrades(context.Background(), 1)
	if trades[0].Source != SourceLoop || trades[0].Signal != model.SignalBuy {
		t.Errorf("unexpected ledger row %+v", trades[0])
	}
}

func TestLoopCycle_BuyWithPositionDoesNothing(t *testing.T) {
	res := &fakeResolver{signals: map[string]model.Signal{"AAPL": model.SignalBuy}}
	b, l := newFakeBroker(100), &fakeLedger{}
	b.held["AAPL"] = 3
	loop := newTestLoop(res, b, l)

	if err := loop.cycle(context.Background(), []string{"AAPL"}); err != nil {
		t.Fatal(err)
	}
	if len(b.Orders()) != 0 || l.Len() != 0 {
		t.Errorf("expected no activity, got %d orders and %d rows", len(b.Orders()), l.Len())
	}
}

func TestLoopCycle_SellAndHold(t *testing.T) {
	res := &fakeResolver{signals: map[string]model.Signal{
		"ETH-USD": model.SignalSell,
		"SPY":     model.SignalSell,
		"MSFT":    model.SignalHold,
	}}
	b, l := newFakeBroker(100), &fakeLedger{}
	b.held["ETH-USD"] = 1.75
	b.held["MSFT"] = 2
	loop := newTestLoop(res, b, l)

	if err := loop.cycle(context.Background(), []string{"ETH-USD", "SPY", "MSFT"}); err != nil {
		t.Fatal(err)
	}
	orders := b.Orders()
	if len(orders) != 1 || orders[0].Symbol != "ETH-USD" || orders[0].Quantity != 1.75 {
		t.Fatalf("expected a single full ETH sell, got %+v", orders)
	}
	if pos, _ := b.Position(context.Background(), "MSFT"); pos == nil {
		t.Error("HOLD must not touch the position")
	}
}

func TestLoopCycle_ContinuesPastFailures(t *testing.T) {
	res := &fakeResolver{signals: map[string]model.Signal{"AAPL": model.SignalBuy}}
	b := newFakeBroker(100)
	loop := newTestLoop(res, b, &fakeLedger{})

	err := loop.cycle(context.Background(), []string{"UNKNOWN", "AAPL"})
	if err == nil {
		t.Fatal("expected the unknown ticker to fail the cycle")
	}
	if len(b.Orders()) != 1 {
		t.Errorf("the remaining symbol should still trade, got %d orders", len(b.Orders()))
	}
	if loop.Status().LastCheck.IsZero() {
		t.Error("last check not recorded")
	}
}

func TestLoop_StartStop(t *testing.T) {
	res := &fakeResolver{signals: map[string]model.Signal{"BTC-USD": model.SignalHold}}
	loop := newTestLoop(res, newFakeBroker(100), &fakeLedger{})

	st, err := loop.Start("btc")
	if err != nil {
		t.Fatal(err)
	}
	if !st.Active || len(st.Symbols) != 1 || st.Symbols[0] != "BTC-USD" || st.Broker != "fake" {
		t.Fatalf("unexpected status %+v", st)
	}

	again, err := loop.Start("AAPL", "MSFT")
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Symbols) != 1 || again.Symbols[0] != "BTC-USD" {
		t.Errorf("second start must not change the watchlist, got %+v", again.Symbols)
	}

	waitFor(t, func() bool { return res.Calls() >= 1 })

	stopped := make(chan Status, 1)
	go func() { stopped <- loop.Stop() }()
	select {
	case st := <-stopped:
		if st.Active {
			t.Error("still active after stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stop not observed while sleeping")
	}

	if calls := res.Calls(); calls != 1 {
		t.Errorf("expected exactly one cycle before the hour-long sleep, got %d", calls)
	}
	if st := loop.Stop(); st.Active {
		t.Error("stop on inactive loop changed state")
	}
}

func TestLoop_BackoffAfterFailedCycle(t *testing.T) {
	res := &fakeResolver{signals: map[string]model.Signal{}}
	loop := NewLoop(res, NewOrders(newFakeBroker(100), &fakeLedger{}, zerolog.Nop()), zerolog.Nop(),
		WithInterval(time.Hour), WithBackoff(20*time.Millisecond))

	if _, err := loop.Start("AAPL"); err != nil {
		t.Fatal(err)
	}
	// Every cycle fails, so only the short backoff separates them.
	waitFor(t, func() bool { return res.Calls() >= 3 })

	stopped := make(chan Status, 1)
	go func() { stopped <- loop.Stop() }()
	select {
	case st := <-stopped:
		if st.Active {
			t.Error("still active after stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stop not observed during backoff")
	}
}

// windingResolver blocks until its caller is cancelled, then lingers before
// returning, and records how many calls were ever in flight together.
type windingResolver struct {
	inFlight  atomic.Int32
	maxFlight atomic.Int32
	entered   atomic.Int32
	cancelled atomic.Int32
}

func (w *windingResolver) Resolve(ctx context.Context, raw string) (model.SignalRecord, error) {
	n := w.inFlight.Add(1)
	defer w.inFlight.Add(-1)
	for {
		m := w.maxFlight.Load()
		if n <= m || w.maxFlight.CompareAndSwap(m, n) {
			break
		}
	}
	w.entered.Add(1)
	<-ctx.Done()
	w.cancelled.Add(1)
	time.Sleep(50 * time.Millisecond)
	return model.SignalRecord{}, ctx.Err()
}

func TestLoop_RestartDuringStopDoesNotOverlap(t *testing.T) {
	res := &windingResolver{}
	loop := NewLoop(res, NewOrders(newFakeBroker(100), &fakeLedger{}, zerolog.Nop()), zerolog.Nop(),
		WithInterval(time.Hour), WithBackoff(time.Hour))

	if _, err := loop.Start("AAPL"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return res.entered.Load() == 1 })

	stopped := make(chan struct{})
	go func() {
		loop.Stop()
		close(stopped)
	}()
	// The first run is now winding down inside Resolve.
	waitFor(t, func() bool { return res.cancelled.Load() == 1 })

	st, err := loop.Start("AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if !st.Active {
		t.Fatalf("restart should leave the loop active, got %+v", st)
	}
	<-stopped
	waitFor(t, func() bool { return res.entered.Load() == 2 })

	if got := res.maxFlight.Load(); got != 1 {
		t.Errorf("expected one cycle goroutine at a time, saw %d", got)
	}
	if st := loop.Stop(); st.Active {
		t.Error("still active after final stop")
	}
}

func TestLoop_StartUsesDefaults(t *testing.T) {
	res := &fakeResolver{signals: map[string]model.Signal{}}
	loop := NewLoop(res, NewOrders(newFakeBroker(1), nil, zerolog.Nop()), zerolog.Nop(),
		WithInterval(time.Hour), WithBackoff(time.Hour), WithDefaultSymbols("eth", "SPY", "ETH-USD"))

	st, err := loop.Start()
	if err != nil {
		t.Fatal(err)
	}
	defer loop.Stop()
	if len(st.Symbols) != 2 || st.Symbols[0] != "ETH-USD" || st.Symbols[1] != "SPY" {
		t.Errorf("unexpected default watchlist %v", st.Symbols)
	}
}

func TestLoop_StartWithoutBroker(t *testing.T) {
	loop := NewLoop(&fakeResolver{}, NewOrders(nil, nil, zerolog.Nop()), zerolog.Nop())
	st, err := loop.Start("AAPL")
	if !errors.Is(err, broker.ErrNotConfigured) || st.Active {
		t.Errorf("expected not configured, got %+v %v", st, err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
