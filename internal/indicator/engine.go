// Package indicator computes technical indicators from daily price series.
//
// All computations are pure functions of the input series. When a series is
// shorter than an indicator's lookback the indicator is reported as absent
// (nil) in the bundle — values are never padded or fabricated.
package indicator

import (
	"shortscan/internal/types"
)

// Params holds indicator periods. Defaults match the scanner contract:
// RSI(14), Bollinger(20, 2σ), ATR(14) with a 20-period trailing window for
// the expansion ratio, MACD(12,26,9).
type Params struct {
	RSIPeriod   int
	BBWindow    int
	BBStdDev    float64
	ATRPeriod   int
	ATRTrailing int
	MACDFast    int
	MACDSlow    int
	MACDSignal  int
}

// DefaultParams returns the standard indicator parameters.
func DefaultParams() Params {
	return Params{
		RSIPeriod:   14,
		BBWindow:    20,
		BBStdDev:    2.0,
		ATRPeriod:   14,
		ATRTrailing: 20,
		MACDFast:    12,
		MACDSlow:    26,
		MACDSignal:  9,
	}
}

// MinBars returns the series length needed for a complete bundle. The MACD
// signal line has the largest lookback (slow + signal periods).
func (p Params) MinBars() int {
	return p.MACDSlow + p.MACDSignal
}

// Engine computes indicator bundles.
type Engine struct {
	p Params
}

// New creates an engine with the given parameters. Zero-valued fields fall
// back to defaults.
func New(p Params) *Engine {
	d := DefaultParams()
	if p.RSIPeriod <= 0 {
		p.RSIPeriod = d.RSIPeriod
	}
	if p.BBWindow <= 0 {
		p.BBWindow = d.BBWindow
	}
	if p.BBStdDev <= 0 {
		p.BBStdDev = d.BBStdDev
	}
	if p.ATRPeriod <= 0 {
		p.ATRPeriod = d.ATRPeriod
	}
	if p.ATRTrailing <= 0 {
		p.ATRTrailing = d.ATRTrailing
	}
	if p.MACDFast <= 0 {
		p.MACDFast = d.MACDFast
	}
	if p.MACDSlow <= 0 {
		p.MACDSlow = d.MACDSlow
	}
	if p.MACDSignal <= 0 {
		p.MACDSignal = d.MACDSignal
	}
	return &Engine{p: p}
}

// Compute derives the indicator bundle for a series. Indicators whose
// lookback exceeds the series length are left nil in the result.
func (e *Engine) Compute(series *types.PriceSeries) types.Indicators {
	var ind types.Indicators
	if series.Len() == 0 {
		return ind
	}

	closes := series.Closes()

	if rsi, ok := wilderRSI(closes, e.p.RSIPeriod); ok {
		ind.RSI14 = types.FloatPtr(rsi)
	}

	if bb, ok := bollinger(closes, e.p.BBWindow, e.p.BBStdDev); ok {
		ind.BBUpper = types.FloatPtr(bb.upper)
		ind.BBMiddle = types.FloatPtr(bb.middle)
		ind.BBLower = types.FloatPtr(bb.lower)
		if bb.percentBValid {
			ind.BBPercentB = types.FloatPtr(bb.percentB)
		}
	}

	atrs := atrSeries(series.Bars, e.p.ATRPeriod)
	if len(atrs) > 0 {
		ind.ATR14 = types.FloatPtr(atrs[len(atrs)-1])
		if ratio, ok := atrExpansion(atrs, e.p.ATRTrailing); ok {
			ind.ATRExpansion = types.FloatPtr(ratio)
		}
	}

	if m, ok := macd(closes, e.p.MACDFast, e.p.MACDSlow, e.p.MACDSignal); ok {
		ind.MACDLine = types.FloatPtr(m.line)
		ind.MACDSignal = types.FloatPtr(m.signal)
		ind.MACDHistogram = types.FloatPtr(m.histogram)
	}

	return ind
}
