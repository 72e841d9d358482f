package indicator

import (
	"math"

	"shortscan/internal/types"
)

// trueRanges computes the true range for each bar after the first:
// max(high-low, |high-prevClose|, |low-prevClose|).
func trueRanges(bars []types.Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prevClose := bars[i-1].Close
		tr := bars[i].High - bars[i].Low
		if v := math.Abs(bars[i].High - prevClose); v > tr {
			tr = v
		}
		if v := math.Abs(bars[i].Low - prevClose); v > tr {
			tr = v
		}
		out = append(out, tr)
	}
	return out
}

// wilderSmooth applies Wilder's smoothing over values: the first output is
// an SMA of the first period values, then s = (prev*(period-1) + v) / period.
// len(out) == len(values)-period+1; nil when values are shorter than period.
func wilderSmooth(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}

	out := make([]float64, 0, len(values)-period+1)
	cur := sum / float64(period)
	out = append(out, cur)

	p := float64(period)
	for i := period; i < len(values); i++ {
		cur = (cur*(p-1) + values[i]) / p
		out = append(out, cur)
	}
	return out
}

// atrSeries computes the Wilder-smoothed ATR series. The first ATR value
// requires period+1 bars.
func atrSeries(bars []types.Bar, period int) []float64 {
	return wilderSmooth(trueRanges(bars), period)
}

// atrExpansion computes current ATR divided by the mean of the trailing
// preceding ATR values. The ratio is unavailable when the trailing window is
// incomplete or its mean is zero — it is never a division by zero.
func atrExpansion(atrs []float64, trailing int) (float64, bool) {
	if trailing <= 0 || len(atrs) < trailing+1 {
		return 0, false
	}

	cur := atrs[len(atrs)-1]
	var sum float64
	for _, v := range atrs[len(atrs)-1-trailing : len(atrs)-1] {
		sum += v
	}
	mean := sum / float64(trailing)
	if mean <= 0 {
		return 0, false
	}
	return cur / mean, true
}
