package indicators

// Standard periods for the fast and slow averages.
const (
	FastPeriod = 8
	SlowPeriod = 21
)

// CalculateEMA computes the Exponential Moving Average.
// Values before the first full period are left at zero.
func CalculateEMA(data []float64, period int) []float64 {
	ema := make([]float64, len(data))
	if period < 1 || len(data) < period {
		return ema
	}

	k := 2.0 / (float64(period) + 1.0)

	// Simple MA seeds the first EMA
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	ema[period-1] = sum / float64(period)

	for i := period; i < len(data); i++ {
		ema[i] = (data[i] * k) + (ema[i-1] * (1 - k))
	}

	return ema
}

// LastEMA returns the most recent EMA value, or false when data is shorter than period.
func LastEMA(data []float64, period int) (float64, bool) {
	if period < 1 || len(data) < period {
		return 0, false
	}
	ema := CalculateEMA(data, period)
	return ema[len(ema)-1], true
}
