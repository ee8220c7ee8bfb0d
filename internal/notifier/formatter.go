package notifier

import (
	"fmt"
	"strings"
	"time"

	"SignalSentinel/internal/model"
)

var signalIcon = map[model.Signal]string{
	model.SignalBuy:  "🟢",
	model.SignalSell: "🔴",
	model.SignalHold: "⚪",
}

// FormatSignal formats a single signal record.
func FormatSignal(rec model.SignalRecord, reason string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s</b> %s\n\n", signalIcon[rec.Signal], rec.Ticker, rec.Signal))
	b.WriteString(fmt.Sprintf("Price: %.2f\n", rec.Price))
	b.WriteString(fmt.Sprintf("MA10: %.2f | MA30: %.2f\n", rec.MA10, rec.MA30))
	b.WriteString(fmt.Sprintf("RSI(14): %.2f\n", rec.RSI))
	if reason != "" {
		b.WriteString(fmt.Sprintf("<i>%s</i>\n", reason))
	}
	b.WriteString(fmt.Sprintf("\n%s · %s", rec.Origin, rec.ComputedAt.UTC().Format("2006-01-02 15:04 MST")))
	return b.String()
}

// DigestLine is one row of the daily digest. Err is set when the ticker had no data.
type DigestLine struct {
	Ticker string
	Record model.SignalRecord
	Err    error
}

// FormatDigest formats the end-of-day watchlist summary.
func FormatDigest(lines []DigestLine, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>SignalSentinel digest</b> | %s\n\n", at.Format("2006-01-02")))
	for _, l := range lines {
		if l.Err != nil {
			b.WriteString(fmt.Sprintf("⚠️ %s: no data\n", l.Ticker))
			continue
		}
		r := l.Record
		b.WriteString(fmt.Sprintf("%s %s <b>%s</b> %.2f (RSI %.0f)", signalIcon[r.Signal], r.Ticker, r.Signal, r.Price, r.RSI))
		if r.Origin != model.OriginFresh {
			b.WriteString(fmt.Sprintf(" [%s]", r.Origin))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatTrade formats an executed trade.
func FormatTrade(t model.Trade) string {
	icon := "🛒"
	if t.Side == model.SideSell {
		icon = "💰"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s %s</b> via %s\n", icon, t.Side, t.Ticker, t.Broker))
	b.WriteString(fmt.Sprintf("Qty: %g @ %.2f = %.2f\n", t.Quantity, t.Price, t.Total))
	b.WriteString(fmt.Sprintf("Order: %s (%s)", t.OrderID, t.Source))
	return b.String()
}

// FormatStatus formats the trading loop state.
func FormatStatus(active bool, symbols []string, lastCheck time.Time, broker string) string {
	var b strings.Builder
	b.WriteString("🤖 <b>Trading loop</b>\n\n")
	state := "stopped"
	if active {
		state = "running"
	}
	b.WriteString(fmt.Sprintf("State: %s\n", state))
	if broker == "" {
		broker = "not configured"
	}
	b.WriteString(fmt.Sprintf("Broker: %s\n", broker))
	if len(symbols) > 0 {
		b.WriteString(fmt.Sprintf("Symbols: %s\n", strings.Join(symbols, ", ")))
	}
	if !lastCheck.IsZero() {
		b.WriteString(fmt.Sprintf("Last check: %s\n", lastCheck.UTC().Format("2006-01-02 15:04 MST")))
	}
	return b.String()
}
