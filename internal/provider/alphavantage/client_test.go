package alphavantage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"shortscan/internal/types"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		APIKey:            "test-key",
		BaseURL:           srv.URL,
		RequestsPerMinute: 6000,
	})
}

func TestHistoryParsesAndSortsBars(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("function"); got != "TIME_SERIES_DAILY" {
			t.Errorf("unexpected function %q", got)
		}
		w.Write([]byte(`{
			"Time Series (Daily)": {
				"2025-06-03": {"1. open":"11.0","2. high":"12.0","3. low":"10.5","4. close":"11.8","5. volume":"250000"},
				"2025-06-02": {"1. open":"10.0","2. high":"11.0","3. low":"9.5","4. close":"10.9","5. volume":"180000"}
			}
		}`))
	})

	series, err := c.History(context.Background(), "ABCD", 60)
	if err != nil {
		t.Fatal(err)
	}
	if series.Len() != 2 {
		t.Fatalf("expected 2 bars, got %d", series.Len())
	}
	if !series.Bars[0].Date.Before(series.Bars[1].Date) {
		t.Error("expected bars ascending by date")
	}
	last, _ := series.Last()
	if last.Close != 11.8 || last.Volume != 250000 {
		t.Errorf("unexpected last bar: %+v", last)
	}
}

func TestHistoryLookbackTrim(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"Time Series (Daily)": {
				"2025-06-02": {"1. open":"1","2. high":"1","3. low":"1","4. close":"1","5. volume":"100"},
				"2025-06-03": {"1. open":"2","2. high":"2","3. low":"2","4. close":"2","5. volume":"100"},
				"2025-06-04": {"1. open":"3","2. high":"3","3. low":"3","4. close":"3","5. volume":"100"}
			}
		}`))
	})

	series, err := c.History(context.Background(), "TRIM", 2)
	if err != nil {
		t.Fatal(err)
	}
	if series.Len() != 2 || series.Bars[0].Close != 2 {
		t.Errorf("expected the most recent 2 bars, got %+v", series.Bars)
	}
}

func TestUnknownSymbolMapsToNotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Error Message": "Invalid API call."}`))
	})

	_, err := c.History(context.Background(), "NOPE", 60)
	if err == nil {
		t.Fatal("expected error")
	}
	if types.FetchKind(err) != types.FetchNotFound {
		t.Errorf("expected NotFound, got %s", types.FetchKind(err))
	}
}

func TestQuotaNoteMapsToRateLimited(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`))
	})

	_, err := c.History(context.Background(), "BUSY", 60)
	if types.FetchKind(err) != types.FetchRateLimited {
		t.Errorf("expected RateLimited, got %v", err)
	}
}

func TestMissingAPIKeyIsFatal(t *testing.T) {
	t.Setenv("ALPHAVANTAGE_API_KEY", "")
	c := New(Config{BaseURL: "http://unused.invalid"})

	_, err := c.History(context.Background(), "ANY", 60)
	if !errors.Is(err, types.ErrCredentials) {
		t.Errorf("expected credentials error, got %v", err)
	}
}

func TestServerErrorIsFatal(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.History(context.Background(), "DOWN", 60)
	if !errors.Is(err, types.ErrProviderUnavailable) {
		t.Errorf("expected provider unavailable, got %v", err)
	}
}

func TestMetadataParsesOverviewAndQuote(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("function") {
		case "OVERVIEW":
			w.Write([]byte(`{
				"Exchange": "NASDAQ",
				"MarketCapitalization": "150000000",
				"SharesFloat": "8000000",
				"IPODate": "2025-03-01",
				"Sector": "TECHNOLOGY"
			}`))
		case "GLOBAL_QUOTE":
			w.Write([]byte(`{"Global Quote": {"05. price":"12.50","06. volume":"5000000","10. change percent":"61.29%"}}`))
		default:
			t.Errorf("unexpected function %q", r.URL.Query().Get("function"))
		}
	})

	meta, err := c.Metadata(context.Background(), "ABCD")
	if err != nil {
		t.Fatal(err)
	}
	if meta.Exchange != "NASDAQ" || meta.Sector != "TECHNOLOGY" {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if meta.MarketCap == nil || *meta.MarketCap != 150_000_000 {
		t.Errorf("unexpected market cap: %v", meta.MarketCap)
	}
	if meta.FloatShares == nil || *meta.FloatShares != 8_000_000 {
		t.Errorf("unexpected float: %v", meta.FloatShares)
	}
	if meta.IPODate == nil {
		t.Error("expected IPO date")
	}
	if meta.ChangePercent == nil || *meta.ChangePercent != 61.29 {
		t.Errorf("unexpected change percent: %v", meta.ChangePercent)
	}
	if meta.LastPrice == nil || *meta.LastPrice != 12.50 {
		t.Errorf("unexpected last price: %v", meta.LastPrice)
	}
	// The quote's session volume is not an average and must not pose as one.
	if meta.AvgVolume != nil {
		t.Errorf("expected AvgVolume nil, got %d", *meta.AvgVolume)
	}
}

func TestMetadataNoneFieldsStayNil(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("function") {
		case "OVERVIEW":
			w.Write([]byte(`{"Exchange":"NYSE","MarketCapitalization":"None","SharesFloat":"-","IPODate":"None"}`))
		case "GLOBAL_QUOTE":
			w.Write([]byte(`{"Global Quote": {}}`))
		}
	})

	meta, err := c.Metadata(context.Background(), "BLNK")
	if err != nil {
		t.Fatal(err)
	}
	if meta.MarketCap != nil || meta.FloatShares != nil || meta.IPODate != nil {
		t.Errorf("expected sentinel fields nil, got %+v", meta)
	}
}

func TestTopGainers(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"top_gainers": [
				{"ticker":"RUNR","price":"4.56","change_percentage":"120.5%"},
				{"ticker":"MOVR","price":"11.20","change_percentage":"61.2%"}
			]
		}`))
	})

	gainers, err := c.TopGainers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(gainers) != 2 {
		t.Fatalf("expected 2 gainers, got %d", len(gainers))
	}
	if gainers[0].Symbol != "RUNR" || *gainers[0].ChangePercent != 120.5 {
		t.Errorf("unexpected gainer: %+v", gainers[0])
	}
}
