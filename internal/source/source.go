// Package source provides ticker sources for a scan run: a static list, a
// watchlist file, and the provider's top gainers screen, plus warrant
// detection with underlying injection.
package source

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"shortscan/internal/interfaces"
	"shortscan/internal/logger"
	"shortscan/internal/types"
)

// Static serves a fixed symbol list.
type Static struct {
	Symbols []string
}

var _ interfaces.TickerSource = (*Static)(nil)

func (s *Static) Tickers(ctx context.Context) ([]types.TickerInput, error) {
	out := make([]types.TickerInput, 0, len(s.Symbols))
	for _, sym := range s.Symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		out = append(out, types.TickerInput{Symbol: sym})
	}
	return out, nil
}

// Watchlist reads symbols from a text file, one per line. Blank lines and
// lines starting with # are skipped.
type Watchlist struct {
	Path string
}

var _ interfaces.TickerSource = (*Watchlist)(nil)

func (w *Watchlist) Tickers(ctx context.Context) ([]types.TickerInput, error) {
	f, err := os.Open(w.Path)
	if err != nil {
		return nil, fmt.Errorf("open watchlist: %w", err)
	}
	defer f.Close()

	out := []types.TickerInput{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, types.TickerInput{Symbol: strings.ToUpper(line)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	return out, nil
}

// GainersScreen pulls the day's top gainers from the provider.
type GainersScreen struct {
	Screen interface {
		TopGainers(ctx context.Context) ([]types.TickerInput, error)
	}
}

var _ interfaces.TickerSource = (*GainersScreen)(nil)

func (g *GainersScreen) Tickers(ctx context.Context) ([]types.TickerInput, error) {
	gainers, err := g.Screen.TopGainers(ctx)
	if err != nil {
		return nil, fmt.Errorf("top gainers screen: %w", err)
	}
	logger.Info(ctx, "Top gainers screen loaded", "count", len(gainers))
	return gainers, nil
}

// WithWarrants wraps a source with warrant expansion.
type WithWarrants struct {
	Source interfaces.TickerSource
}

var _ interfaces.TickerSource = (*WithWarrants)(nil)

func (w *WithWarrants) Tickers(ctx context.Context) ([]types.TickerInput, error) {
	tickers, err := w.Source.Tickers(ctx)
	if err != nil {
		return nil, err
	}
	expanded := ExpandWarrants(tickers)
	if n := len(expanded) - len(tickers); n > 0 {
		logger.Info(ctx, "Injected underlying symbols for warrants", "added", n)
	}
	return expanded, nil
}

// notWarrants are common stocks ending in W that are not warrants.
var notWarrants = map[string]bool{
	"BMW": true, "SCHW": true, "SNOW": true, "FLOW": true, "GLOW": true,
	"GROW": true, "KNOW": true, "SHOW": true, "STEW": true, "VIEW": true,
}

// IsWarrant detects warrant tickers by the trailing-W convention. Symbols
// shorter than 4 characters and the known exceptions are never warrants.
func IsWarrant(symbol string) bool {
	symbol = strings.ToUpper(symbol)
	if len(symbol) < 4 || notWarrants[symbol] {
		return false
	}
	return strings.HasSuffix(symbol, "W")
}

// Underlying strips the trailing W(s) to get the common stock symbol.
func Underlying(warrant string) string {
	return strings.TrimRight(strings.ToUpper(warrant), "W")
}

// ExpandWarrants flags warrants in the list and injects each warrant's
// underlying stock when it is not already present. A gaining warrant means
// the common shares moved too, and the common is the shortable instrument.
func ExpandWarrants(tickers []types.TickerInput) []types.TickerInput {
	existing := map[string]bool{}
	for _, t := range tickers {
		existing[strings.ToUpper(t.Symbol)] = true
	}

	out := make([]types.TickerInput, 0, len(tickers))
	injected := []types.TickerInput{}
	for _, t := range tickers {
		if IsWarrant(t.Symbol) {
			t.IsWarrant = true
			t.Underlying = Underlying(t.Symbol)
			if !existing[t.Underlying] {
				existing[t.Underlying] = true
				injected = append(injected, types.TickerInput{Symbol: t.Underlying})
			}
		}
		out = append(out, t)
	}
	return append(out, injected...)
}
