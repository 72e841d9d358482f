package risk

import (
	"reflect"
	"testing"
	"time"

	"shortscan/internal/types"
)

var testNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func testClassifier() *Classifier {
	return NewClassifier(DefaultConfig()).WithClock(func() time.Time { return testNow })
}

func TestHighSqueezeRequiresBothConditions(t *testing.T) {
	c := testClassifier()
	recentIPO := testNow.AddDate(0, 0, -90)
	oldIPO := testNow.AddDate(0, 0, -400)

	cases := []struct {
		name string
		meta types.Metadata
		want bool
	}{
		{"recent IPO and low float", types.Metadata{IPODate: &recentIPO, FloatShares: types.IntPtr(5_000_000)}, true},
		{"recent IPO, big float", types.Metadata{IPODate: &recentIPO, FloatShares: types.IntPtr(80_000_000)}, false},
		{"old IPO, low float", types.Metadata{IPODate: &oldIPO, FloatShares: types.IntPtr(5_000_000)}, false},
		{"missing IPO date", types.Metadata{FloatShares: types.IntPtr(5_000_000)}, false},
		{"missing float", types.Metadata{IPODate: &recentIPO}, false},
	}

	for _, tc := range cases {
		flags := c.Classify(types.Indicators{}, &tc.meta)
		got := types.HasFlag(flags, types.FlagHighSqueeze)
		if got != tc.want {
			t.Errorf("%s: HIGH_SQUEEZE = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestExtremeVolatility(t *testing.T) {
	c := testClassifier()

	// ATR expansion path (example: TCGL at 6.2x).
	flags := c.Classify(types.Indicators{ATRExpansion: types.FloatPtr(6.2)}, &types.Metadata{})
	if !types.HasFlag(flags, types.FlagExtremeVolatility) {
		t.Error("expected EXTREME_VOLATILITY from ATR expansion 6.2")
	}

	// Day change path.
	flags = c.Classify(types.Indicators{}, &types.Metadata{ChangePercent: types.FloatPtr(941.0)})
	if !types.HasFlag(flags, types.FlagExtremeVolatility) {
		t.Error("expected EXTREME_VOLATILITY from +941% day move")
	}

	// Negative moves count by magnitude.
	flags = c.Classify(types.Indicators{}, &types.Metadata{ChangePercent: types.FloatPtr(-60.0)})
	if !types.HasFlag(flags, types.FlagExtremeVolatility) {
		t.Error("expected EXTREME_VOLATILITY from -60% day move")
	}

	// Below both thresholds.
	flags = c.Classify(
		types.Indicators{ATRExpansion: types.FloatPtr(2.0)},
		&types.Metadata{ChangePercent: types.FloatPtr(30.0)},
	)
	if types.HasFlag(flags, types.FlagExtremeVolatility) {
		t.Error("did not expect EXTREME_VOLATILITY below thresholds")
	}
}

func TestMicrocapAndLowLiquidityIndependent(t *testing.T) {
	c := testClassifier()

	// Example scenario: $150M cap with 40K average volume fires both.
	meta := &types.Metadata{
		MarketCap: types.FloatPtr(150_000_000),
		AvgVolume: types.IntPtr(40_000),
	}
	flags := c.Classify(types.Indicators{}, meta)

	if !types.HasFlag(flags, types.FlagMicrocap) {
		t.Error("expected MICROCAP at $150M market cap")
	}
	if !types.HasFlag(flags, types.FlagLowLiquidity) {
		t.Error("expected LOW_LIQUIDITY at 40K avg volume")
	}
	if types.HasFlag(flags, types.FlagExtremeVolatility) {
		t.Error("MICROCAP + LOW_LIQUIDITY must not imply EXTREME_VOLATILITY")
	}
}

func TestNonNasdaq(t *testing.T) {
	c := testClassifier()

	for _, exch := range []string{"NASDAQ", "NMS", "ngs", "NCM"} {
		flags := c.Classify(types.Indicators{}, &types.Metadata{Exchange: exch})
		if types.HasFlag(flags, types.FlagNonNasdaq) {
			t.Errorf("exchange %q should not flag NON_NASDAQ", exch)
		}
	}

	flags := c.Classify(types.Indicators{}, &types.Metadata{Exchange: "NYSE"})
	if !types.HasFlag(flags, types.FlagNonNasdaq) {
		t.Error("expected NON_NASDAQ for NYSE listing")
	}

	// Missing exchange metadata fails open.
	flags = c.Classify(types.Indicators{}, &types.Metadata{})
	if types.HasFlag(flags, types.FlagNonNasdaq) {
		t.Error("missing exchange must not flag NON_NASDAQ")
	}
}

func TestMissingMetadataYieldsEmptySet(t *testing.T) {
	c := testClassifier()

	flags := c.Classify(types.Indicators{}, nil)
	if flags == nil {
		t.Fatal("flag set must be non-nil even when empty")
	}
	if len(flags) != 0 {
		t.Errorf("expected empty flag set, got %v", flags)
	}
}

func TestCanonicalOrder(t *testing.T) {
	c := testClassifier()
	recentIPO := testNow.AddDate(0, 0, -30)

	meta := &types.Metadata{
		Exchange:      "NYSE",
		MarketCap:     types.FloatPtr(100_000_000),
		AvgVolume:     types.IntPtr(50_000),
		FloatShares:   types.IntPtr(1_000_000),
		IPODate:       &recentIPO,
		ChangePercent: types.FloatPtr(120.0),
	}
	flags := c.Classify(types.Indicators{ATRExpansion: types.FloatPtr(8.0)}, meta)

	want := []types.RiskFlag{
		types.FlagHighSqueeze,
		types.FlagExtremeVolatility,
		types.FlagMicrocap,
		types.FlagLowLiquidity,
		types.FlagNonNasdaq,
	}
	if !reflect.DeepEqual(flags, want) {
		t.Errorf("flags = %v, want canonical order %v", flags, want)
	}
}
