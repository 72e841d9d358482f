// Package catalyst explains why a symbol moved: scrape recent headlines,
// classify the catalyst behind them, and report whether it is fundamental
// enough to make a short dangerous.
package catalyst

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"shortscan/internal/logger"
)

// Headline is one scraped news item.
type Headline struct {
	Title       string
	URL         string
	Snippet     string
	Source      string
	PublishedAt string
}

// Scraper pulls recent headlines for a symbol from financial news sites.
type Scraper struct {
	sources []NewsSource
	timeout time.Duration
}

// NewsSource defines one site to scrape.
type NewsSource struct {
	Name       string
	BaseURL    string
	SearchPath string // {symbol} is replaced with the ticker
	Selectors  ArticleSelectors
	RateLimit  time.Duration
}

// ArticleSelectors are the CSS selectors for extracting headline data.
type ArticleSelectors struct {
	ArticleContainer string
	Title            string
	URL              string
	Snippet          string
	PublishedAt      string
}

// NewScraper creates a scraper with the default source list.
func NewScraper(timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scraper{
		sources: getDefaultSources(),
		timeout: timeout,
	}
}

func getDefaultSources() []NewsSource {
	return []NewsSource{
		{
			Name:       "YahooFinance",
			BaseURL:    "https://finance.yahoo.com",
			SearchPath: "/quote/{symbol}/news",
			Selectors: ArticleSelectors{
				ArticleContainer: "li.stream-item",
				Title:            "h3",
				URL:              "a",
				Snippet:          "p",
				PublishedAt:      "div.publishing",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "Finviz",
			BaseURL:    "https://finviz.com",
			SearchPath: "/quote.ashx?t={symbol}",
			Selectors: ArticleSelectors{
				ArticleContainer: "tr.news-table-row",
				Title:            "a.tab-link-news",
				URL:              "a.tab-link-news",
				Snippet:          "",
				PublishedAt:      "td[align=right]",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "StockTwits",
			BaseURL:    "https://stocktwits.com",
			SearchPath: "/symbol/{symbol}/news",
			Selectors: ArticleSelectors{
				ArticleContainer: "div.news-item",
				Title:            "h4 a",
				URL:              "h4 a",
				Snippet:          "p",
				PublishedAt:      "time",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// ScrapeHeadlines fetches recent headlines for symbol from every source.
// Per-source failures are logged and skipped; the result may be empty.
func (s *Scraper) ScrapeHeadlines(ctx context.Context, symbol string, maxHeadlines int) ([]Headline, error) {
	logger.Debug(ctx, "Scraping headlines", "symbol", symbol, "sources", len(s.sources))

	if len(s.sources) == 0 {
		return []Headline{}, nil
	}
	perSource := maxHeadlines / len(s.sources)
	if perSource < 1 {
		perSource = 1
	}

	all := []Headline{}
	for i, source := range s.sources {
		if ctx.Err() != nil {
			return all, ctx.Err()
		}
		headlines, err := s.scrapeSource(ctx, source, symbol, perSource)
		if err != nil {
			logger.Warn(ctx, "Headline source failed", "source", source.Name, "symbol", symbol, "error", err.Error())
		} else {
			all = append(all, headlines...)
		}
		// Pace between sources only; no sleep after the last one.
		if i < len(s.sources)-1 {
			select {
			case <-ctx.Done():
				return all, ctx.Err()
			case <-time.After(source.RateLimit):
			}
		}
	}

	logger.Debug(ctx, "Headline scraping completed", "symbol", symbol, "headlines", len(all))
	return all, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, source NewsSource, symbol string, maxHeadlines int) ([]Headline, error) {
	headlines := []Headline{}

	c := colly.NewCollector(
		colly.AllowedDomains(getDomain(source.BaseURL)),
		colly.MaxDepth(1),
		colly.Async(false),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(source.Selectors.ArticleContainer, func(e *colly.HTMLElement) {
		if len(headlines) >= maxHeadlines {
			return
		}
		h, ok := extractHeadline(e.DOM, source)
		if !ok {
			return
		}
		headlines = append(headlines, h)
	})

	searchURL := source.BaseURL + strings.ReplaceAll(source.SearchPath, "{symbol}", url.PathEscape(symbol))
	if err := c.Visit(searchURL); err != nil {
		return nil, err
	}
	c.Wait()

	return headlines, nil
}

// extractHeadline pulls one headline out of an article container selection.
func extractHeadline(sel *goquery.Selection, source NewsSource) (Headline, bool) {
	title := strings.TrimSpace(sel.Find(source.Selectors.Title).First().Text())
	if title == "" {
		return Headline{}, false
	}

	href, _ := sel.Find(source.Selectors.URL).First().Attr("href")
	if href != "" && !strings.HasPrefix(href, "http") {
		href = source.BaseURL + href
	}

	h := Headline{
		Title:  title,
		URL:    href,
		Source: source.Name,
	}
	if source.Selectors.Snippet != "" {
		h.Snippet = strings.TrimSpace(sel.Find(source.Selectors.Snippet).First().Text())
	}
	if source.Selectors.PublishedAt != "" {
		h.PublishedAt = strings.TrimSpace(sel.Find(source.Selectors.PublishedAt).First().Text())
	}
	return h, true
}

func getDomain(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.Host
}
