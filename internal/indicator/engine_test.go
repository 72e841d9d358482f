package indicator

import (
	"math"
	"testing"
	"time"

	"shortscan/internal/types"
)

func makeSeries(closes []float64) *types.PriceSeries {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		bars[i] = types.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.02,
			Low:    c * 0.98,
			Close:  c,
			Volume: 100000,
		}
	}
	return &types.PriceSeries{Symbol: "TEST", Bars: bars}
}

func flatCloses(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func risingCloses(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func TestShortSeriesReportsUnavailable(t *testing.T) {
	eng := New(DefaultParams())

	// 19 bars: below the Bollinger window, the ATR trailing window, and the
	// MACD lookback. Only RSI (needs 15 bars) should be present.
	ind := eng.Compute(makeSeries(risingCloses(19, 10, 0.5)))

	if ind.RSI14 == nil {
		t.Error("expected RSI with 19 bars")
	}
	if ind.BBUpper != nil || ind.BBMiddle != nil || ind.BBLower != nil {
		t.Error("expected Bollinger Bands unavailable below 20 bars")
	}
	if ind.ATRExpansion != nil {
		t.Error("expected ATR expansion unavailable below trailing window")
	}
	if ind.MACDLine != nil || ind.MACDSignal != nil || ind.MACDHistogram != nil {
		t.Error("expected MACD unavailable below 35 bars")
	}
}

func TestFullBundleAt35Bars(t *testing.T) {
	eng := New(DefaultParams())

	ind := eng.Compute(makeSeries(risingCloses(35, 10, 0.5)))

	if ind.RSI14 == nil {
		t.Error("expected RSI")
	}
	if ind.BBUpper == nil || ind.BBMiddle == nil || ind.BBLower == nil || ind.BBPercentB == nil {
		t.Error("expected complete Bollinger Bands")
	}
	if ind.ATR14 == nil {
		t.Error("expected ATR")
	}
	if ind.ATRExpansion == nil {
		t.Error("expected ATR expansion with 35 bars")
	}
	if ind.MACDLine == nil || ind.MACDSignal == nil || ind.MACDHistogram == nil {
		t.Error("expected complete MACD with 35 bars")
	}
}

func TestPartialBundleAt34Bars(t *testing.T) {
	eng := New(DefaultParams())

	ind := eng.Compute(makeSeries(risingCloses(34, 10, 0.5)))

	if ind.MACDSignal != nil {
		t.Error("expected MACD signal unavailable at 34 bars")
	}
	if ind.ATRExpansion != nil {
		t.Error("expected ATR expansion unavailable at 34 bars")
	}
	if ind.BBUpper == nil || ind.ATR14 == nil {
		t.Error("expected Bollinger and ATR available at 34 bars")
	}
}

func TestEmptySeries(t *testing.T) {
	eng := New(DefaultParams())
	ind := eng.Compute(&types.PriceSeries{Symbol: "EMPTY"})

	if ind.RSI14 != nil || ind.BBUpper != nil || ind.ATR14 != nil || ind.MACDLine != nil {
		t.Error("expected empty bundle for empty series")
	}
}

func TestWilderRSI(t *testing.T) {
	// All gains: RSI saturates at 100.
	if rsi, ok := wilderRSI([]float64{1, 2, 3}, 2); !ok || rsi != 100.0 {
		t.Errorf("expected RSI 100 for all-gains series, got %v ok=%v", rsi, ok)
	}

	// One gain, one loss of equal size: RS = 1, RSI = 50.
	rsi, ok := wilderRSI([]float64{2, 1, 2}, 2)
	if !ok {
		t.Fatal("expected RSI to be computable")
	}
	if math.Abs(rsi-50.0) > 1e-9 {
		t.Errorf("expected RSI 50, got %f", rsi)
	}

	// Insufficient data.
	if _, ok := wilderRSI(risingCloses(14, 1, 1), 14); ok {
		t.Error("expected no RSI with only period closes")
	}
}

func TestBollingerKnownValues(t *testing.T) {
	bb, ok := bollinger([]float64{1, 3}, 2, 2.0)
	if !ok {
		t.Fatal("expected bands")
	}
	// mean 2, population sigma 1 -> upper 4, lower 0, %B = (3-0)/4.
	if math.Abs(bb.middle-2) > 1e-9 || math.Abs(bb.upper-4) > 1e-9 || math.Abs(bb.lower-0) > 1e-9 {
		t.Errorf("unexpected bands: %+v", bb)
	}
	if !bb.percentBValid || math.Abs(bb.percentB-0.75) > 1e-9 {
		t.Errorf("expected %%B 0.75, got %+v", bb)
	}
}

func TestBollingerZeroWidthBands(t *testing.T) {
	bb, ok := bollinger(flatCloses(20, 5), 20, 2.0)
	if !ok {
		t.Fatal("expected bands for 20 flat closes")
	}
	if bb.percentBValid {
		t.Error("expected %B invalid when bands have zero width")
	}
	if bb.upper != bb.lower {
		t.Error("expected zero-width bands on constant closes")
	}
}

func TestATRExpansion(t *testing.T) {
	if ratio, ok := atrExpansion([]float64{1, 1, 3}, 2); !ok || math.Abs(ratio-3.0) > 1e-9 {
		t.Errorf("expected expansion 3.0, got %v ok=%v", ratio, ok)
	}

	// Incomplete trailing window.
	if _, ok := atrExpansion([]float64{1, 3}, 2); ok {
		t.Error("expected expansion unavailable with incomplete trailing window")
	}

	// Zero trailing mean must not divide.
	if _, ok := atrExpansion([]float64{0, 0, 3}, 2); ok {
		t.Error("expected expansion unavailable with zero trailing mean")
	}
}

func TestMACDFlatSeriesIsZero(t *testing.T) {
	m, ok := macd(flatCloses(35, 10), 12, 26, 9)
	if !ok {
		t.Fatal("expected MACD at 35 closes")
	}
	if math.Abs(m.line) > 1e-9 || math.Abs(m.signal) > 1e-9 || math.Abs(m.histogram) > 1e-9 {
		t.Errorf("expected zero MACD on flat closes, got %+v", m)
	}

	if _, ok := macd(flatCloses(34, 10), 12, 26, 9); ok {
		t.Error("expected MACD unavailable below 35 closes")
	}
}

func TestMACDHistogramSign(t *testing.T) {
	// Steady uptrend: fast EMA above slow EMA, line positive.
	m, ok := macd(risingCloses(60, 10, 1), 12, 26, 9)
	if !ok {
		t.Fatal("expected MACD")
	}
	if m.line <= 0 {
		t.Errorf("expected positive MACD line in uptrend, got %f", m.line)
	}
}

func TestComputeIsPure(t *testing.T) {
	eng := New(DefaultParams())
	series := makeSeries(risingCloses(50, 20, 0.3))

	a := eng.Compute(series)
	b := eng.Compute(series)

	if *a.RSI14 != *b.RSI14 || *a.MACDHistogram != *b.MACDHistogram || *a.ATRExpansion != *b.ATRExpansion {
		t.Error("expected identical bundles from repeated computation")
	}
}
