package calculator

import "errors"

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// rollingMean is the trailing mean of the last period values, or 0 when the
// window is not fully populated.
func rollingMean(values []float64, period int) float64 {
	m, err := CalculateSMA(values, period)
	if err != nil {
		return 0
	}
	return m
}
