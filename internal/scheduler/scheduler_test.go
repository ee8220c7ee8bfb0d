package scheduler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"SignalSentinel/internal/model"
	"SignalSentinel/internal/signal"
	"SignalSentinel/internal/trader"
)

type stubResolver struct {
	mu    sync.Mutex
	calls []string
}

func (r *stubResolver) Resolve(_ context.Context, raw string) (model.SignalRecord, error) {
	t := model.NormalizeTicker(raw)
	r.mu.Lock()
	r.calls = append(r.calls, t)
	r.mu.Unlock()
	if t == "NOPE" {
		return model.SignalRecord{}, &signal.NoDataError{Ticker: t}
	}
	return model.SignalRecord{
		Ticker: t, Signal: model.SignalBuy, Price: 101.5, MA10: 100, MA30: 95, RSI: 48,
		ComputedAt: time.Now(), Origin: model.OriginFresh,
	}, nil
}

type stubLoop struct {
	st      trader.Status
	started []string
}

func (l *stubLoop) Start(symbols ...string) (trader.Status, error) {
	l.started = symbols
	l.st.Active = true
	l.st.Symbols = symbols
	return l.st, nil
}

func (l *stubLoop) Stop() trader.Status {
	l.st.Active = false
	return l.st
}

func (l *stubLoop) Status() trader.Status { return l.st }

type stubSender struct {
	sent []string
}

func (s *stubSender) Enabled() bool { return true }

func (s *stubSender) SendWithRetry(_ context.Context, text string, _ int) error {
	s.sent = append(s.sent, text)
	return nil
}

func newTestScheduler(loop LoopController) (*Scheduler, *stubResolver, *stubSender) {
	res, snd := &stubResolver{}, &stubSender{}
	s := NewScheduler(context.Background(), res, loop, snd, []string{"AAPL", "btc", "NOPE"}, zerolog.Nop())
	return s, res, snd
}

func TestHandleCommand_Signal(t *testing.T) {
	s, res, _ := newTestScheduler(nil)

	reply := s.HandleCommand(context.Background(), "/signal eth")
	if !strings.Contains(reply, "ETH-USD") || !strings.Contains(reply, "BUY") || !strings.Contains(reply, "MA10 above MA30") {
		t.Errorf("unexpected reply:\n%s", reply)
	}
	if len(res.calls) != 1 || res.calls[0] != "ETH-USD" {
		t.Errorf("unexpected resolver calls %v", res.calls)
	}

	if reply := s.HandleCommand(context.Background(), "/signal nope"); !strings.HasPrefix(reply, "❌") {
		t.Errorf("expected error reply, got %q", reply)
	}
	if reply := s.HandleCommand(context.Background(), "/signal"); !strings.Contains(reply, "Usage") {
		t.Errorf("expected usage, got %q", reply)
	}
}

func TestHandleCommand_LoopControl(t *testing.T) {
	loop := &stubLoop{st: trader.Status{Broker: "paper"}}
	s, _, _ := newTestScheduler(loop)

	reply := s.HandleCommand(context.Background(), "/start@SignalBot AAPL MSFT")
	if !strings.Contains(reply, "running") || len(loop.started) != 2 || loop.started[1] != "MSFT" {
		t.Errorf("start: %q %v", reply, loop.started)
	}
	if reply := s.HandleCommand(context.Background(), "/status"); !strings.Contains(reply, "AAPL, MSFT") {
		t.Errorf("status: %q", reply)
	}
	if reply := s.HandleCommand(context.Background(), "/stop"); !strings.Contains(reply, "stopped") {
		t.Errorf("stop: %q", reply)
	}
}

func TestHandleCommand_NoBroker(t *testing.T) {
	s, _, _ := newTestScheduler(nil)
	if reply := s.HandleCommand(context.Background(), "/start"); !strings.Contains(reply, "not configured") {
		t.Errorf("start: %q", reply)
	}
	if reply := s.HandleCommand(context.Background(), "/status"); !strings.Contains(reply, "not configured") {
		t.Errorf("status: %q", reply)
	}
	if reply := s.HandleCommand(context.Background(), "hello"); reply != helpText {
		t.Errorf("expected help, got %q", reply)
	}
}

func TestDigestTask(t *testing.T) {
	s, res, snd := newTestScheduler(&stubLoop{})
	s.digestTask()
	if len(snd.sent) != 1 {
		t.Fatalf("expected one digest, got %d", len(snd.sent))
	}
	msg := snd.sent[0]
	if !strings.Contains(msg, "BTC-USD") || !strings.Contains(msg, "NOPE: no data") || !strings.Contains(msg, "Trading loop") {
		t.Errorf("unexpected digest:\n%s", msg)
	}
	if len(res.calls) != 3 {
		t.Errorf("expected 3 resolutions, got %d", len(res.calls))
	}
}

func TestWarmAndRegister(t *testing.T) {
	s, res, _ := newTestScheduler(nil)
	s.RunWarmNow()
	if len(res.calls) != 3 {
		t.Errorf("expected every watchlist ticker resolved, got %v", res.calls)
	}

	if err := s.RegisterAll("0 */5 * * * *", "0 0 22 * * 1-5"); err != nil {
		t.Fatal(err)
	}
	if n := len(s.Cron.Entries()); n != 2 {
		t.Errorf("expected 2 jobs, got %d", n)
	}
	if err := s.RegisterAll("not a cron", ""); err == nil {
		t.Error("expected invalid spec error")
	}
}
