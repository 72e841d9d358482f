package indicator

// emaSeries computes an exponential moving average seeded with an SMA over
// the first period values. The returned slice holds one EMA value per input
// from index period-1 onward, so len(out) == len(values)-period+1. Returns
// nil when there are fewer values than the period.
func emaSeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	multiplier := 2.0 / float64(period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}

	out := make([]float64, 0, len(values)-period+1)
	cur := sum / float64(period)
	out = append(out, cur)

	for i := period; i < len(values); i++ {
		cur = values[i]*multiplier + cur*(1-multiplier)
		out = append(out, cur)
	}
	return out
}
