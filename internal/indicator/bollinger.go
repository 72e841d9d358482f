package indicator

import "math"

type bollingerValues struct {
	upper         float64
	middle        float64
	lower         float64
	percentB      float64
	percentBValid bool
}

// bollinger computes Bollinger Bands over the last window closes: rolling
// mean plus/minus stdDev population standard deviations. %B locates the last
// close within the bands (0 = lower, 1 = upper); it is invalid when the
// bands have zero width. Bands are undefined before window bars.
func bollinger(closes []float64, window int, stdDev float64) (bollingerValues, bool) {
	if window <= 0 || len(closes) < window {
		return bollingerValues{}, false
	}

	recent := closes[len(closes)-window:]

	var sum float64
	for _, c := range recent {
		sum += c
	}
	mean := sum / float64(window)

	var ss float64
	for _, c := range recent {
		d := c - mean
		ss += d * d
	}
	sigma := math.Sqrt(ss / float64(window))

	bb := bollingerValues{
		upper:  mean + stdDev*sigma,
		middle: mean,
		lower:  mean - stdDev*sigma,
	}

	width := bb.upper - bb.lower
	if width > 0 {
		bb.percentB = (closes[len(closes)-1] - bb.lower) / width
		bb.percentBValid = true
	}

	return bb, true
}
