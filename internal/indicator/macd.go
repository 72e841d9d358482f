package indicator

type macdValues struct {
	line      float64
	signal    float64
	histogram float64
}

// macd computes MACD(fast, slow, signalPeriod): the line is EMA(fast) −
// EMA(slow), the signal is an EMA of the line, and the histogram is line −
// signal. The full bundle requires slow+signalPeriod closes; below that the
// whole result is reported unavailable rather than partially estimated.
func macd(closes []float64, fast, slow, signalPeriod int) (macdValues, bool) {
	if len(closes) < slow+signalPeriod {
		return macdValues{}, false
	}

	emaFast := emaSeries(closes, fast)
	emaSlow := emaSeries(closes, slow)
	if emaFast == nil || emaSlow == nil {
		return macdValues{}, false
	}

	// Both EMA series end at the last close; align them from the point the
	// slow EMA becomes defined.
	offset := len(emaFast) - len(emaSlow)
	lineSeries := make([]float64, len(emaSlow))
	for i := range emaSlow {
		lineSeries[i] = emaFast[i+offset] - emaSlow[i]
	}

	signalSeries := emaSeries(lineSeries, signalPeriod)
	if signalSeries == nil {
		return macdValues{}, false
	}

	line := lineSeries[len(lineSeries)-1]
	signal := signalSeries[len(signalSeries)-1]
	return macdValues{
		line:      line,
		signal:    signal,
		histogram: line - signal,
	}, true
}
