// Package mock is a deterministic in-memory data provider for dry runs and
// tests. Each symbol gets a synthetic price path seeded from its name, so
// repeated runs produce identical output without touching the network.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"shortscan/internal/interfaces"
	"shortscan/internal/types"
)

var _ interfaces.PriceFetcher = (*Provider)(nil)
var _ interfaces.TickerSource = (*Provider)(nil)

// Provider serves synthetic data. The zero value is usable.
type Provider struct {
	// Universe is what Tickers returns. Empty means a small built-in list of
	// plausible runners.
	Universe []types.TickerInput
}

// History returns lookback bars of a seeded random walk ending today. The
// last bar carries a pronounced gap up so the scanner has something to rank.
func (p *Provider) History(ctx context.Context, symbol string, lookback int) (*types.PriceSeries, error) {
	if lookback <= 0 {
		lookback = 60
	}
	rng := rand.New(rand.NewSource(int64(seed(symbol))))

	price := 3.0 + rng.Float64()*20.0
	start := time.Now().UTC().AddDate(0, 0, -lookback)
	bars := make([]types.Bar, 0, lookback)
	for i := 0; i < lookback; i++ {
		drift := rng.NormFloat64() * 0.02
		if i == lookback-1 {
			// Gap the final session up 20-90%.
			drift = 0.2 + rng.Float64()*0.7
		}
		open := price
		price = math.Max(0.5, price*(1+drift))
		high := math.Max(open, price) * (1 + rng.Float64()*0.03)
		low := math.Min(open, price) * (1 - rng.Float64()*0.03)
		bars = append(bars, types.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  price,
			Volume: 50_000 + rng.Int63n(5_000_000),
		})
	}
	return &types.PriceSeries{Symbol: symbol, Bars: bars}, nil
}

// Metadata derives stable reference data from the symbol seed. Roughly a
// third of symbols present as recent low-float IPOs.
func (p *Provider) Metadata(ctx context.Context, symbol string) (*types.Metadata, error) {
	rng := rand.New(rand.NewSource(int64(seed(symbol)) + 1))

	meta := &types.Metadata{
		Symbol:    symbol,
		Exchange:  "NASDAQ",
		MarketCap: types.FloatPtr(50_000_000 + rng.Float64()*2_000_000_000),
		AvgVolume: types.IntPtr(30_000 + rng.Int63n(8_000_000)),
		Sector:    "TECHNOLOGY",
	}
	if rng.Intn(3) == 0 {
		ipo := time.Now().UTC().AddDate(0, 0, -rng.Intn(170))
		meta.IPODate = &ipo
		meta.FloatShares = types.IntPtr(1_000_000 + rng.Int63n(15_000_000))
	} else {
		meta.FloatShares = types.IntPtr(25_000_000 + rng.Int63n(500_000_000))
	}
	if rng.Intn(5) == 0 {
		meta.Exchange = "NYSE"
	}
	return meta, nil
}

// Tickers returns the configured universe, or a built-in list.
func (p *Provider) Tickers(ctx context.Context) ([]types.TickerInput, error) {
	if len(p.Universe) > 0 {
		return p.Universe, nil
	}
	out := []types.TickerInput{}
	for _, s := range []string{"ABVC", "BDRX", "CYTO", "DRMA", "ENSC", "FGEN", "GNPX", "HOTH"} {
		out = append(out, types.TickerInput{
			Symbol:        s,
			ChangePercent: types.FloatPtr(25.0 + float64(seed(s)%150)),
		})
	}
	return out, nil
}

func seed(symbol string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return h.Sum32()
}
