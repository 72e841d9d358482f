// Package risk derives discrete risk flags from indicators and ticker
// metadata. Every rule is independent and fail-open: missing inputs mean the
// rule does not fire, never that classification fails.
package risk

import (
	"math"
	"strings"
	"time"

	"shortscan/internal/types"
)

// Config holds the classification thresholds. Values are explicit and
// versioned through the scanner config so runs are reproducible.
type Config struct {
	SqueezeIPODays         int      `yaml:"squeeze_ipo_days"`
	SqueezeFloatMax        int64    `yaml:"squeeze_float_max"`
	VolatilityATRExpansion float64  `yaml:"volatility_atr_expansion"`
	VolatilityDayChangePct float64  `yaml:"volatility_day_change_pct"`
	MicrocapMarketCap      float64  `yaml:"microcap_market_cap"`
	LowLiquidityAvgVolume  int64    `yaml:"low_liquidity_avg_volume"`
	NasdaqExchanges        []string `yaml:"nasdaq_exchanges"`
}

// DefaultConfig returns the standard thresholds: IPO within 180 days with a
// float under 20M shares, ATR expansion over 5x or a 50% single-day move,
// $300M market cap, 100K average daily volume.
func DefaultConfig() Config {
	return Config{
		SqueezeIPODays:         180,
		SqueezeFloatMax:        20_000_000,
		VolatilityATRExpansion: 5.0,
		VolatilityDayChangePct: 50.0,
		MicrocapMarketCap:      300_000_000,
		LowLiquidityAvgVolume:  100_000,
		NasdaqExchanges:        []string{"NASDAQ", "NMS", "NGS", "NCM"},
	}
}

// Classifier evaluates risk rules against a candidate's data.
type Classifier struct {
	cfg Config
	now func() time.Time
}

// NewClassifier creates a classifier with the given thresholds. Zero-valued
// thresholds fall back to defaults.
func NewClassifier(cfg Config) *Classifier {
	d := DefaultConfig()
	if cfg.SqueezeIPODays <= 0 {
		cfg.SqueezeIPODays = d.SqueezeIPODays
	}
	if cfg.SqueezeFloatMax <= 0 {
		cfg.SqueezeFloatMax = d.SqueezeFloatMax
	}
	if cfg.VolatilityATRExpansion <= 0 {
		cfg.VolatilityATRExpansion = d.VolatilityATRExpansion
	}
	if cfg.VolatilityDayChangePct <= 0 {
		cfg.VolatilityDayChangePct = d.VolatilityDayChangePct
	}
	if cfg.MicrocapMarketCap <= 0 {
		cfg.MicrocapMarketCap = d.MicrocapMarketCap
	}
	if cfg.LowLiquidityAvgVolume <= 0 {
		cfg.LowLiquidityAvgVolume = d.LowLiquidityAvgVolume
	}
	if len(cfg.NasdaqExchanges) == 0 {
		cfg.NasdaqExchanges = d.NasdaqExchanges
	}
	return &Classifier{cfg: cfg, now: time.Now}
}

// WithClock overrides the clock used for IPO recency. Intended for tests.
func (c *Classifier) WithClock(now func() time.Time) *Classifier {
	c.now = now
	return c
}

// Classify evaluates all rules and returns the flags that fired, in the
// canonical display order: squeeze, volatility, microcap, liquidity,
// exchange. The result is never nil; an empty set is a valid outcome.
func (c *Classifier) Classify(ind types.Indicators, meta *types.Metadata) []types.RiskFlag {
	flags := make([]types.RiskFlag, 0, len(types.CanonicalFlagOrder))

	if c.highSqueeze(meta) {
		flags = append(flags, types.FlagHighSqueeze)
	}
	if c.extremeVolatility(ind, meta) {
		flags = append(flags, types.FlagExtremeVolatility)
	}
	if c.microcap(meta) {
		flags = append(flags, types.FlagMicrocap)
	}
	if c.lowLiquidity(meta) {
		flags = append(flags, types.FlagLowLiquidity)
	}
	if c.nonNasdaq(meta) {
		flags = append(flags, types.FlagNonNasdaq)
	}

	return flags
}

// highSqueeze fires when the IPO is within the recency window AND the float
// is below the threshold. Both inputs are required.
func (c *Classifier) highSqueeze(meta *types.Metadata) bool {
	if meta == nil || meta.IPODate == nil || meta.FloatShares == nil {
		return false
	}

	daysSinceIPO := int(c.now().Sub(*meta.IPODate).Hours() / 24)
	if daysSinceIPO < 0 || daysSinceIPO > c.cfg.SqueezeIPODays {
		return false
	}
	return *meta.FloatShares < c.cfg.SqueezeFloatMax
}

// extremeVolatility fires on ATR expansion above the multiplier OR a
// single-day move beyond the change threshold, whichever is available.
func (c *Classifier) extremeVolatility(ind types.Indicators, meta *types.Metadata) bool {
	if ind.ATRExpansion != nil && *ind.ATRExpansion > c.cfg.VolatilityATRExpansion {
		return true
	}
	if meta != nil && meta.ChangePercent != nil && math.Abs(*meta.ChangePercent) > c.cfg.VolatilityDayChangePct {
		return true
	}
	return false
}

func (c *Classifier) microcap(meta *types.Metadata) bool {
	if meta == nil || meta.MarketCap == nil {
		return false
	}
	return *meta.MarketCap < c.cfg.MicrocapMarketCap
}

func (c *Classifier) lowLiquidity(meta *types.Metadata) bool {
	if meta == nil || meta.AvgVolume == nil {
		return false
	}
	return *meta.AvgVolume < c.cfg.LowLiquidityAvgVolume
}

func (c *Classifier) nonNasdaq(meta *types.Metadata) bool {
	if meta == nil || meta.Exchange == "" {
		return false
	}
	exchange := strings.ToUpper(strings.TrimSpace(meta.Exchange))
	for _, n := range c.cfg.NasdaqExchanges {
		if exchange == strings.ToUpper(n) {
			return false
		}
	}
	return true
}
