package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"SignalSentinel/internal/model"
)

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "", zerolog.Nop())
	n.BaseURL = srv.URL
	if err := n.Send(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}
	if got["chat_id"] != "42" || got["text"] != "hi" || got["parse_mode"] != "HTML" {
		t.Errorf("unexpected payload %v", got)
	}
}

func TestSendWithRetry_Recovers(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("T", "1", "", zerolog.Nop())
	n.BaseURL = srv.URL
	if err := n.SendWithRetry(context.Background(), "x", 2); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("expected 2 calls, got %d", n)
	}
}

func TestEnabled(t *testing.T) {
	var nilNotifier *TelegramNotifier
	if nilNotifier.Enabled() {
		t.Error("nil notifier must be disabled")
	}
	if NewTelegramNotifier("", "1", "", zerolog.Nop()).Enabled() {
		t.Error("missing token must be disabled")
	}
}

func TestFormatters(t *testing.T) {
	rec := model.SignalRecord{
		Ticker: "AAPL", Signal: model.SignalBuy, Price: 190.12, MA10: 188, MA30: 180, RSI: 55.5,
		ComputedAt: time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC), Origin: model.OriginFresh,
	}
	s := FormatSignal(rec, "MA10 above MA30, RSI 56")
	for _, want := range []string{"AAPL", "BUY", "190.12", "RSI(14): 55.50", "MA10 above MA30"} {
		if !strings.Contains(s, want) {
			t.Errorf("signal message missing %q:\n%s", want, s)
		}
	}

	d := FormatDigest([]DigestLine{
		{Ticker: "AAPL", Record: rec},
		{Ticker: "BTC-USD", Record: model.SignalRecord{Ticker: "BTC-USD", Signal: model.SignalHold, Origin: model.OriginFallback}},
		{Ticker: "ZZZ", Err: context.DeadlineExceeded},
	}, rec.ComputedAt)
	if !strings.Contains(d, "[fallback]") || !strings.Contains(d, "ZZZ: no data") || strings.Contains(d, "[fresh]") {
		t.Errorf("unexpected digest:\n%s", d)
	}

	tr := FormatTrade(model.Trade{Order: model.Order{OrderID: "SIM-1", Ticker: "ETH-USD", Side: model.SideSell, Quantity: 0.5, Price: 3000, Total: 1500}, Broker: "paper", Source: "loop"})
	if !strings.Contains(tr, "SELL ETH-USD") || !strings.Contains(tr, "0.5 @ 3000.00") {
		t.Errorf("unexpected trade message:\n%s", tr)
	}

	st := FormatStatus(false, nil, time.Time{}, "")
	if !strings.Contains(st, "stopped") || !strings.Contains(st, "not configured") {
		t.Errorf("unexpected status:\n%s", st)
	}
}
