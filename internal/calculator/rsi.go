package calculator

import "errors"

// CalculateRSI computes the simple-average RSI over the last period deltas of
// closes. Gains and losses are the trailing means of the positive and
// (absolute) negative day-over-day changes, zero elsewhere. A window that is
// not fully populated yields 0 for both means rather than an undefined value,
// which makes the result 100.
//
// RSI is 100 when the average loss is exactly zero.
func CalculateRSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	gain, loss := gainLoss(closes, period)
	return rsiFrom(gain, loss), nil
}

func gainLoss(closes []float64, period int) (gain, loss float64) {
	if len(closes) < 2 {
		return 0, 0
	}
	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i-1] = d
		} else if d < 0 {
			losses[i-1] = -d
		}
	}
	return rollingMean(gains, period), rollingMean(losses, period)
}

func rsiFrom(gain, loss float64) float64 {
	if loss == 0 {
		return 100
	}
	return 100 - 100/(1+gain/loss)
}
