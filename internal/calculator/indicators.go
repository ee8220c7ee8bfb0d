package calculator

import (
	"math"

	"SignalSentinel/internal/model"
)

const (
	// MinHistory is the shortest series a signal may be computed from.
	MinHistory = 30

	shortWindow = 10
	longWindow  = 30
	rsiPeriod   = 14
)

// Compute derives MA10, MA30 and RSI14 from closes, oldest first. Callers
// guarantee at least MinHistory points. Values are unrounded; use Round for
// presentation.
func Compute(closes []float64) model.Indicators {
	rsi, _ := CalculateRSI(closes, rsiPeriod)
	ind := model.Indicators{
		MA10: rollingMean(closes, shortWindow),
		MA30: rollingMean(closes, longWindow),
		RSI:  rsi,
	}
	if n := len(closes); n > 0 {
		ind.Price = closes[n-1]
	}
	return ind
}

// Round returns ind with every value rounded to 2 decimal places.
func Round(ind model.Indicators) model.Indicators {
	return model.Indicators{
		Price: Round2(ind.Price),
		MA10:  Round2(ind.MA10),
		MA30:  Round2(ind.MA30),
		RSI:   Round2(ind.RSI),
	}
}

// Round2 rounds v half away from zero to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
