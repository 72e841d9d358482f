// Package scoring combines indicators, risk flags, and catalyst input into a
// 0-10 composite score with a rating band, and maps the result to a
// recommended trade expression.
package scoring

import (
	"math"

	"shortscan/internal/types"
)

// Weights controls how the technical-quality components combine. Missing
// components are excluded and the remaining weights renormalized, so a
// partial bundle never biases the technical term toward either extreme.
type Weights struct {
	RSI       float64 `yaml:"rsi"`
	Bollinger float64 `yaml:"bollinger"`
	MACD      float64 `yaml:"macd"`
}

// Penalties are the fixed per-flag score deductions. Squeeze and volatility
// penalize harder than the structural flags.
type Penalties struct {
	HighSqueeze         float64 `yaml:"high_squeeze"`
	ExtremeVolatility   float64 `yaml:"extreme_volatility"`
	Microcap            float64 `yaml:"microcap"`
	LowLiquidity        float64 `yaml:"low_liquidity"`
	NonNasdaq           float64 `yaml:"non_nasdaq"`
	FundamentalCatalyst float64 `yaml:"fundamental_catalyst"`
}

// Config holds the scoring parameters. The rating band boundaries (4/6/8)
// are a fixed contract and are not configurable.
type Config struct {
	Baseline       float64   `yaml:"baseline"`
	TechnicalRange float64   `yaml:"technical_range"`
	Weights        Weights   `yaml:"weights"`
	Penalties      Penalties `yaml:"penalties"`
}

// DefaultConfig returns the standard scoring parameters.
func DefaultConfig() Config {
	return Config{
		Baseline:       10.0,
		TechnicalRange: 3.0,
		Weights: Weights{
			RSI:       0.40,
			Bollinger: 0.35,
			MACD:      0.25,
		},
		Penalties: Penalties{
			HighSqueeze:         2.0,
			ExtremeVolatility:   1.5,
			Microcap:            1.0,
			LowLiquidity:        0.5,
			NonNasdaq:           0.5,
			FundamentalCatalyst: 3.0,
		},
	}
}

// Breakdown is the component-level view of one score.
type Breakdown struct {
	Technical       float64      `json:"technical"`
	RiskPenalty     float64      `json:"risk_penalty"`
	CatalystPenalty float64      `json:"catalyst_penalty"`
	Final           float64      `json:"final"`
	Rating          types.Rating `json:"rating"`
}

// Scorer computes composite scores. It is a pure function of its inputs:
// identical (indicators, flags, catalyst) always yields an identical score.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer. Zero-valued config fields fall back to
// defaults.
func NewScorer(cfg Config) *Scorer {
	d := DefaultConfig()
	if cfg.Baseline <= 0 {
		cfg.Baseline = d.Baseline
	}
	if cfg.TechnicalRange <= 0 {
		cfg.TechnicalRange = d.TechnicalRange
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = d.Weights
	}
	if cfg.Penalties == (Penalties{}) {
		cfg.Penalties = d.Penalties
	}
	return &Scorer{cfg: cfg}
}

// Score computes the composite score: baseline 10.0, plus a technical term
// in [-range, +range], minus per-flag penalties, minus the catalyst penalty
// when a confirmed fundamental catalyst is present. Clamped to [0, 10].
func (s *Scorer) Score(ind types.Indicators, flags []types.RiskFlag, catalyst *types.CatalystAssessment) Breakdown {
	b := Breakdown{
		Technical:   s.technicalQuality(ind),
		RiskPenalty: s.riskPenalty(flags),
	}

	if catalyst != nil && catalyst.HasFundamentalCatalyst {
		b.CatalystPenalty = s.cfg.Penalties.FundamentalCatalyst
	}

	raw := s.cfg.Baseline + b.Technical - b.RiskPenalty - b.CatalystPenalty
	b.Final = clamp(raw, 0.0, 10.0)
	b.Rating = RatingFor(b.Final)
	return b
}

// technicalQuality maps the available indicator components, each in [-1, +1],
// to a weighted score in [-range, +range]. Unavailable components drop out
// and their weight is redistributed proportionally among the rest; with no
// components available the term is zero.
func (s *Scorer) technicalQuality(ind types.Indicators) float64 {
	var weighted, totalWeight float64

	if c, ok := rsiComponent(ind.RSI14); ok {
		weighted += c * s.cfg.Weights.RSI
		totalWeight += s.cfg.Weights.RSI
	}
	if c, ok := bollingerComponent(ind.BBPercentB); ok {
		weighted += c * s.cfg.Weights.Bollinger
		totalWeight += s.cfg.Weights.Bollinger
	}
	if c, ok := macdComponent(ind.MACDHistogram); ok {
		weighted += c * s.cfg.Weights.MACD
		totalWeight += s.cfg.Weights.MACD
	}

	if totalWeight == 0 {
		return 0
	}
	return s.cfg.TechnicalRange * (weighted / totalWeight)
}

// rsiComponent maps RSI positioning to [-1, +1]: overbought readings favor
// the short (RSI 80 saturates at +1), oversold readings oppose it.
func rsiComponent(rsi *float64) (float64, bool) {
	if rsi == nil {
		return 0, false
	}
	return clamp((*rsi-50.0)/30.0, -1.0, 1.0), true
}

// bollingerComponent maps %B to [-1, +1]: at or above the upper band is
// maximally overextended, at or below the lower band the opposite.
func bollingerComponent(percentB *float64) (float64, bool) {
	if percentB == nil {
		return 0, false
	}
	return clamp(2.0**percentB-1.0, -1.0, 1.0), true
}

// macdComponent maps MACD trend direction to [-1, +1]: a negative histogram
// (line below signal, momentum rolling over) favors the short.
func macdComponent(histogram *float64) (float64, bool) {
	if histogram == nil {
		return 0, false
	}
	switch {
	case *histogram < 0:
		return 1.0, true
	case *histogram > 0:
		return -1.0, true
	default:
		return 0, true
	}
}

func (s *Scorer) riskPenalty(flags []types.RiskFlag) float64 {
	penalties := map[types.RiskFlag]float64{
		types.FlagHighSqueeze:       s.cfg.Penalties.HighSqueeze,
		types.FlagExtremeVolatility: s.cfg.Penalties.ExtremeVolatility,
		types.FlagMicrocap:          s.cfg.Penalties.Microcap,
		types.FlagLowLiquidity:      s.cfg.Penalties.LowLiquidity,
		types.FlagNonNasdaq:         s.cfg.Penalties.NonNasdaq,
	}

	var total float64
	seen := map[types.RiskFlag]bool{}
	for _, f := range flags {
		if seen[f] {
			continue
		}
		seen[f] = true
		total += penalties[f]
	}
	return total
}

// RatingFor maps a score to its rating band: [8,10] Excellent, [6,8) Good,
// [4,6) Moderate, [0,4) Poor.
func RatingFor(score float64) types.Rating {
	switch {
	case score >= 8.0:
		return types.RatingExcellent
	case score >= 6.0:
		return types.RatingGood
	case score >= 4.0:
		return types.RatingModerate
	default:
		return types.RatingPoor
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
