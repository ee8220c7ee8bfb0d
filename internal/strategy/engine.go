package strategy

import (
	"fmt"

	"SignalSentinel/internal/model"
)

// RSI exhaustion bounds. A crossover signal is suppressed once momentum is
// already stretched in its direction.
const (
	Overbought = 70.0
	Oversold   = 30.0
)

// Classify maps indicators to a signal. The first matching rule wins:
//
//	MA10 > MA30 and RSI < 70  -> BUY
//	MA10 < MA30 and RSI > 30  -> SELL
//	otherwise                 -> HOLD
//
// Equal averages fall through to HOLD.
func Classify(ind model.Indicators) model.Signal {
	switch {
	case ind.MA10 > ind.MA30 && ind.RSI < Overbought:
		return model.SignalBuy
	case ind.MA10 < ind.MA30 && ind.RSI > Oversold:
		return model.SignalSell
	default:
		return model.SignalHold
	}
}

// Explain returns a short human readable reason for the classification.
func Explain(ind model.Indicators) string {
	switch {
	case ind.MA10 > ind.MA30 && ind.RSI >= Overbought:
		return fmt.Sprintf("uptrend but overbought (RSI %.0f)", ind.RSI)
	case ind.MA10 > ind.MA30:
		return fmt.Sprintf("MA10 above MA30, RSI %.0f", ind.RSI)
	case ind.MA10 < ind.MA30 && ind.RSI <= Oversold:
		return fmt.Sprintf("downtrend but oversold (RSI %.0f)", ind.RSI)
	case ind.MA10 < ind.MA30:
		return fmt.Sprintf("MA10 below MA30, RSI %.0f", ind.RSI)
	default:
		return "averages flat"
	}
}
