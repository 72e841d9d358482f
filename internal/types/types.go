// Package types holds the shared data model for the scanner: price series,
// ticker inputs, derived indicators, risk flags, candidates, and batch results.
package types

import (
	"time"
)

// Bar is a single daily OHLCV bar.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries is a daily price history, ascending by date with no duplicate
// dates. Immutable once fetched for a run.
type PriceSeries struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Last returns the most recent bar, or false when the series is empty.
func (s *PriceSeries) Last() (Bar, bool) {
	if s.Len() == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Closes returns the close prices in date order.
func (s *PriceSeries) Closes() []float64 {
	out := make([]float64, s.Len())
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// TickerInput is one symbol enqueued for evaluation. ChangePercent and
// LastPrice are optional hints from the enumerating source.
type TickerInput struct {
	Symbol        string   `json:"symbol"`
	ChangePercent *float64 `json:"change_percent,omitempty"`
	LastPrice     *float64 `json:"last_price,omitempty"`
	IsWarrant     bool     `json:"is_warrant,omitempty"`
	Underlying    string   `json:"underlying,omitempty"`
}

// Metadata is per-ticker reference data used by the risk classifier. Every
// field except Symbol is optional: a missing value disables the rules that
// depend on it rather than failing classification.
type Metadata struct {
	Symbol        string     `json:"symbol"`
	Exchange      string     `json:"exchange,omitempty"`
	MarketCap     *float64   `json:"market_cap,omitempty"`
	AvgVolume     *int64     `json:"avg_volume,omitempty"`
	FloatShares   *int64     `json:"float_shares,omitempty"`
	IPODate       *time.Time `json:"ipo_date,omitempty"`
	ChangePercent *float64   `json:"change_percent,omitempty"`
	LastPrice     *float64   `json:"last_price,omitempty"`
	Sector        string     `json:"sector,omitempty"`
}

// Indicators is the derived technical bundle for one candidate. A nil field
// means the indicator could not be computed from the available bars; values
// are never fabricated or defaulted to zero.
type Indicators struct {
	RSI14 *float64 `json:"rsi_14,omitempty"`

	BBUpper    *float64 `json:"bb_upper,omitempty"`
	BBMiddle   *float64 `json:"bb_middle,omitempty"`
	BBLower    *float64 `json:"bb_lower,omitempty"`
	BBPercentB *float64 `json:"bb_percent_b,omitempty"`

	ATR14        *float64 `json:"atr_14,omitempty"`
	ATRExpansion *float64 `json:"atr_expansion,omitempty"`

	MACDLine      *float64 `json:"macd_line,omitempty"`
	MACDSignal    *float64 `json:"macd_signal,omitempty"`
	MACDHistogram *float64 `json:"macd_histogram,omitempty"`
}

// RiskFlag marks a discrete structural danger attached to a candidate.
type RiskFlag string

const (
	FlagHighSqueeze       RiskFlag = "HIGH_SQUEEZE"
	FlagExtremeVolatility RiskFlag = "EXTREME_VOLATILITY"
	FlagMicrocap          RiskFlag = "MICROCAP"
	FlagLowLiquidity      RiskFlag = "LOW_LIQUIDITY"
	FlagNonNasdaq         RiskFlag = "NON_NASDAQ"
)

// CanonicalFlagOrder is the stable display order for risk flags: squeeze,
// volatility, microcap, liquidity, exchange.
var CanonicalFlagOrder = []RiskFlag{
	FlagHighSqueeze,
	FlagExtremeVolatility,
	FlagMicrocap,
	FlagLowLiquidity,
	FlagNonNasdaq,
}

// HasFlag reports whether flag is present in flags.
func HasFlag(flags []RiskFlag, flag RiskFlag) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

// CatalystClassification labels the news catalyst behind a price move.
type CatalystClassification string

const (
	CatalystEarnings      CatalystClassification = "EARNINGS"
	CatalystFDA           CatalystClassification = "FDA"
	CatalystMA            CatalystClassification = "MA"
	CatalystUpgrade       CatalystClassification = "UPGRADE"
	CatalystContract      CatalystClassification = "CONTRACT"
	CatalystProductLaunch CatalystClassification = "PRODUCT_LAUNCH"
	CatalystSpeculative   CatalystClassification = "SPECULATIVE"
	CatalystMemeSocial    CatalystClassification = "MEME_SOCIAL"
	CatalystUnknown       CatalystClassification = "UNKNOWN"
)

// IsFundamental reports whether this catalyst type typically justifies a
// repricing, making the short dangerous.
func (c CatalystClassification) IsFundamental() bool {
	switch c {
	case CatalystEarnings, CatalystFDA, CatalystMA, CatalystContract:
		return true
	}
	return false
}

// Confidence is the analyzer's confidence in its catalyst assessment.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// CatalystAssessment is the externally supplied catalyst input. The scorer
// treats it as opaque: only HasFundamentalCatalyst affects the score.
type CatalystAssessment struct {
	HasFundamentalCatalyst bool                   `json:"has_fundamental_catalyst"`
	Classification         CatalystClassification `json:"classification"`
	Summary                string                 `json:"summary,omitempty"`
	Confidence             Confidence             `json:"confidence"`
}

// TradeExpression is the recommended structure for acting on a candidate.
type TradeExpression string

const (
	ExpressionShortShares TradeExpression = "SHORT_SHARES"
	ExpressionBuyPuts     TradeExpression = "BUY_PUTS"
	ExpressionPutSpreads  TradeExpression = "PUT_SPREADS"
	ExpressionAvoid       TradeExpression = "AVOID"
)

// Rating is the qualitative band derived from the composite score.
type Rating string

const (
	RatingExcellent Rating = "EXCELLENT"
	RatingGood      Rating = "GOOD"
	RatingModerate  Rating = "MODERATE"
	RatingPoor      Rating = "POOR"
)

// FetchStatus marks how complete a candidate's input data was.
type FetchStatus string

const (
	StatusOK      FetchStatus = "ok"
	StatusPartial FetchStatus = "partial"
)

// Candidate is one ticker's complete evaluation record.
type Candidate struct {
	Symbol     string              `json:"symbol"`
	Series     *PriceSeries        `json:"-"`
	Metadata   *Metadata           `json:"metadata,omitempty"`
	Indicators Indicators          `json:"indicators"`
	RiskFlags  []RiskFlag          `json:"risk_flags"`
	Catalyst   *CatalystAssessment `json:"catalyst,omitempty"`
	Score      float64             `json:"score"`
	Rating     Rating              `json:"rating"`
	Expression TradeExpression     `json:"expression"`
	Warnings   []string            `json:"warnings,omitempty"`
	Status     FetchStatus         `json:"status"`
}

// FailedTicker records one per-ticker evaluation failure.
type FailedTicker struct {
	Symbol string         `json:"symbol"`
	Kind   FetchErrorKind `json:"kind,omitempty"`
	Reason string         `json:"reason"`
}

// BatchResult is one run's ranked output. Candidates are ordered by score
// descending with ties broken by symbol ascending. Warnings holds run-level
// notices that have no surviving candidate to attach to.
type BatchResult struct {
	Candidates []Candidate    `json:"candidates"`
	Count      int            `json:"count"`
	Failed     []FailedTicker `json:"failed,omitempty"`
	Warnings   []string       `json:"warnings,omitempty"`
	RunAt      time.Time      `json:"run_at"`
}

// FloatPtr returns a pointer to v. Convenience for optional fields.
func FloatPtr(v float64) *float64 { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int64) *int64 { return &v }

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time { return &t }
