package model

import "time"

// Signal is the discrete trading recommendation.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Origin tells where a SignalRecord came from.
type Origin string

const (
	OriginFresh    Origin = "fresh"
	OriginCached   Origin = "cached"
	OriginFallback Origin = "fallback"
)

// Indicators holds the values derived from a price series.
type Indicators struct {
	Price float64
	MA10  float64
	MA30  float64
	RSI   float64
}

// SignalRecord is a computed (or recovered) recommendation for one ticker.
type SignalRecord struct {
	Ticker     string    `json:"ticker"`
	Signal     Signal    `json:"signal"`
	Price      float64   `json:"price"`
	MA10       float64   `json:"ma10"`
	MA30       float64   `json:"ma30"`
	RSI        float64   `json:"rsi"`
	ComputedAt time.Time `json:"computed_at"`
	Origin     Origin    `json:"origin"`
}

// WithOrigin returns a copy of the record tagged with origin o.
func (r SignalRecord) WithOrigin(o Origin) SignalRecord {
	r.Origin = o
	return r
}

// Indicators returns the record's indicator values.
func (r SignalRecord) Indicators() Indicators {
	return Indicators{Price: r.Price, MA10: r.MA10, MA30: r.MA30, RSI: r.RSI}
}
