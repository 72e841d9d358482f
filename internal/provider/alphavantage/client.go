// Package alphavantage implements the market data provider against the
// Alpha Vantage REST API: daily history, company overview, global quote,
// and the top gainers screen.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"shortscan/internal/interfaces"
	"shortscan/internal/types"
)

const defaultBaseURL = "https://www.alphavantage.co/query"

var _ interfaces.PriceFetcher = (*Client)(nil)

// Config holds the provider settings.
type Config struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`

	// RequestsPerMinute paces outgoing calls. The free tier allows 5; zero
	// falls back to that.
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// TimeoutSeconds bounds each HTTP call. Defaults to 30.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Client is an Alpha Vantage API client. Safe for concurrent use; the
// limiter serializes calls to stay inside the API quota.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a client. The API key falls back to the ALPHAVANTAGE_API_KEY
// environment variable; a missing key surfaces as ErrCredentials on first
// use rather than at construction.
func New(cfg Config) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ALPHAVANTAGE_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 5
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
	}
}

// History fetches daily bars for symbol, ascending by date, trimmed to the
// most recent lookback bars.
func (c *Client) History(ctx context.Context, symbol string, lookback int) (*types.PriceSeries, error) {
	body, err := c.call(ctx, symbol, url.Values{
		"function":   {"TIME_SERIES_DAILY"},
		"symbol":     {symbol},
		"outputsize": {"compact"},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Series map[string]struct {
			Open   string `json:"1. open"`
			High   string `json:"2. high"`
			Low    string `json:"3. low"`
			Close  string `json:"4. close"`
			Volume string `json:"5. volume"`
		} `json:"Time Series (Daily)"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, types.NewFetchError(types.FetchNetworkError, symbol, fmt.Errorf("decode daily series: %w", err))
	}
	if len(payload.Series) == 0 {
		return nil, types.NewFetchError(types.FetchNotFound, symbol, fmt.Errorf("no daily series returned"))
	}

	bars := make([]types.Bar, 0, len(payload.Series))
	for date, row := range payload.Series {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue
		}
		bar := types.Bar{Date: d}
		if bar.Open, err = strconv.ParseFloat(row.Open, 64); err != nil {
			continue
		}
		if bar.High, err = strconv.ParseFloat(row.High, 64); err != nil {
			continue
		}
		if bar.Low, err = strconv.ParseFloat(row.Low, 64); err != nil {
			continue
		}
		if bar.Close, err = strconv.ParseFloat(row.Close, 64); err != nil {
			continue
		}
		if bar.Volume, err = strconv.ParseInt(row.Volume, 10, 64); err != nil {
			continue
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	if lookback > 0 && len(bars) > lookback {
		bars = bars[len(bars)-lookback:]
	}
	return &types.PriceSeries{Symbol: symbol, Bars: bars}, nil
}

// Metadata combines the company overview and the global quote. Fields the
// API omits or returns as "None" stay nil.
func (c *Client) Metadata(ctx context.Context, symbol string) (*types.Metadata, error) {
	body, err := c.call(ctx, symbol, url.Values{
		"function": {"OVERVIEW"},
		"symbol":   {symbol},
	})
	if err != nil {
		return nil, err
	}

	var overview struct {
		Exchange    string `json:"Exchange"`
		MarketCap   string `json:"MarketCapitalization"`
		SharesFloat string `json:"SharesFloat"`
		IPODate     string `json:"IPODate"`
		Sector      string `json:"Sector"`
	}
	if err := json.Unmarshal(body, &overview); err != nil {
		return nil, types.NewFetchError(types.FetchNetworkError, symbol, fmt.Errorf("decode overview: %w", err))
	}

	meta := &types.Metadata{
		Symbol:   symbol,
		Exchange: overview.Exchange,
		Sector:   overview.Sector,
	}
	if v, ok := parseAPIFloat(overview.MarketCap); ok {
		meta.MarketCap = types.FloatPtr(v)
	}
	if v, ok := parseAPIFloat(overview.SharesFloat); ok {
		meta.FloatShares = types.IntPtr(int64(v))
	}
	if overview.IPODate != "" && overview.IPODate != "None" {
		if d, err := time.Parse("2006-01-02", overview.IPODate); err == nil {
			meta.IPODate = types.TimePtr(d)
		}
	}

	if err := c.fillQuote(ctx, symbol, meta); err != nil {
		// Quote gaps leave change and volume nil; the overview data alone is
		// still usable.
		return meta, nil
	}
	return meta, nil
}

func (c *Client) fillQuote(ctx context.Context, symbol string, meta *types.Metadata) error {
	body, err := c.call(ctx, symbol, url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {symbol},
	})
	if err != nil {
		return err
	}

	var payload struct {
		Quote struct {
			Price         string `json:"05. price"`
			ChangePercent string `json:"10. change percent"`
		} `json:"Global Quote"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return err
	}

	if v, ok := parseAPIFloat(payload.Quote.Price); ok {
		meta.LastPrice = types.FloatPtr(v)
	}
	if v, ok := parseAPIFloat(strings.TrimSuffix(payload.Quote.ChangePercent, "%")); ok {
		meta.ChangePercent = types.FloatPtr(v)
	}
	// The quote's "06. volume" is the current session's print, not an
	// average; AvgVolume stays nil and is derived from the daily bars
	// downstream.
	return nil
}

// TopGainers returns the day's top percentage gainers from the market
// movers screen, already carrying change and price hints.
func (c *Client) TopGainers(ctx context.Context) ([]types.TickerInput, error) {
	body, err := c.call(ctx, "", url.Values{
		"function": {"TOP_GAINERS_LOSERS"},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		TopGainers []struct {
			Ticker        string `json:"ticker"`
			Price         string `json:"price"`
			ChangePercent string `json:"change_percentage"`
		} `json:"top_gainers"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, types.NewFetchError(types.FetchNetworkError, "", fmt.Errorf("decode top gainers: %w", err))
	}

	out := make([]types.TickerInput, 0, len(payload.TopGainers))
	for _, g := range payload.TopGainers {
		in := types.TickerInput{Symbol: g.Ticker}
		if v, ok := parseAPIFloat(g.Price); ok {
			in.LastPrice = types.FloatPtr(v)
		}
		if v, ok := parseAPIFloat(strings.TrimSuffix(g.ChangePercent, "%")); ok {
			in.ChangePercent = types.FloatPtr(v)
		}
		out = append(out, in)
	}
	return out, nil
}

// call performs one rate-limited API request and maps HTTP and in-band API
// failures to the fetch error taxonomy.
func (c *Client) call(ctx context.Context, symbol string, params url.Values) ([]byte, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("alphavantage: %w", types.ErrCredentials)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params.Set("apikey", c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, types.NewFetchError(types.FetchNetworkError, symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewFetchError(types.FetchNetworkError, symbol, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, types.NewFetchError(types.FetchRateLimited, symbol, fmt.Errorf("http 429"))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("alphavantage http %d: %w", resp.StatusCode, types.ErrCredentials)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("alphavantage http %d: %w", resp.StatusCode, types.ErrProviderUnavailable)
	case resp.StatusCode >= 300:
		return nil, types.NewFetchError(types.FetchNetworkError, symbol, fmt.Errorf("http %d", resp.StatusCode))
	}

	// The API reports quota and symbol errors in-band with HTTP 200.
	var apiErr struct {
		ErrorMessage string `json:"Error Message"`
		Note         string `json:"Note"`
		Information  string `json:"Information"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.ErrorMessage != "" {
			return nil, types.NewFetchError(types.FetchNotFound, symbol, fmt.Errorf("%s", apiErr.ErrorMessage))
		}
		if note := apiErr.Note + apiErr.Information; note != "" {
			if strings.Contains(strings.ToLower(note), "api key") {
				return nil, fmt.Errorf("alphavantage: %s: %w", note, types.ErrCredentials)
			}
			return nil, types.NewFetchError(types.FetchRateLimited, symbol, fmt.Errorf("%s", note))
		}
	}
	return body, nil
}

// parseAPIFloat parses the API's stringly-typed numbers, treating the
// sentinel values "None" and "-" as absent.
func parseAPIFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
