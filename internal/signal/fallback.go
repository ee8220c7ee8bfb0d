package signal

import (
	"time"

	"SignalSentinel/internal/model"
)

// FallbackEntry is a static reference answer for a well-known ticker.
type FallbackEntry struct {
	Signal model.Signal
	Price  float64
	MA10   float64
	MA30   float64
	RSI    float64
}

func (e FallbackEntry) record(ticker string, at time.Time) model.SignalRecord {
	return model.SignalRecord{
		Ticker:     ticker,
		Signal:     e.Signal,
		Price:      e.Price,
		MA10:       e.MA10,
		MA30:       e.MA30,
		RSI:        e.RSI,
		ComputedAt: at,
		Origin:     model.OriginFallback,
	}
}

// DefaultFallback is served only when live derivation fails and nothing is
// cached for the ticker. Keys are normalized tickers.
var DefaultFallback = map[string]FallbackEntry{
	"BTC-USD":  {Signal: model.SignalHold, Price: 67250.00, MA10: 66980.40, MA30: 66410.75, RSI: 58.20},
	"ETH-USD":  {Signal: model.SignalHold, Price: 3480.00, MA10: 3455.10, MA30: 3398.60, RSI: 55.40},
	"DOGE-USD": {Signal: model.SignalHold, Price: 0.16, MA10: 0.16, MA30: 0.15, RSI: 52.10},
	"SOL-USD":  {Signal: model.SignalHold, Price: 152.30, MA10: 150.85, MA30: 148.20, RSI: 54.70},
	"AAPL":     {Signal: model.SignalHold, Price: 189.50, MA10: 188.20, MA30: 186.90, RSI: 56.30},
	"MSFT":     {Signal: model.SignalHold, Price: 415.20, MA10: 412.60, MA30: 409.80, RSI: 57.10},
	"TSLA":     {Signal: model.SignalHold, Price: 178.80, MA10: 180.10, MA30: 182.40, RSI: 44.90},
	"NVDA":     {Signal: model.SignalHold, Price: 880.00, MA10: 872.50, MA30: 860.30, RSI: 61.20},
	"SPY":      {Signal: model.SignalHold, Price: 512.40, MA10: 510.90, MA30: 507.60, RSI: 58.80},
}
