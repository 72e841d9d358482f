package catalyst

import (
	"context"
	"sync"
	"time"

	"shortscan/internal/interfaces"
	"shortscan/internal/logger"
	"shortscan/internal/types"
)

// ServiceConfig configures the catalyst service.
type ServiceConfig struct {
	MaxHeadlines   int           `yaml:"max_headlines"`
	CacheDuration  time.Duration `yaml:"cache_duration"`
	ScraperTimeout time.Duration `yaml:"scraper_timeout"`
}

// DefaultServiceConfig returns the standard settings.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxHeadlines:   15,
		CacheDuration:  1 * time.Hour,
		ScraperTimeout: 30 * time.Second,
	}
}

// Service scrapes headlines and classifies them, caching per-symbol results
// so a symbol appearing in multiple runs within the TTL is assessed once.
type Service struct {
	scraper  *Scraper
	analyzer Analyzer
	cache    *assessmentCache
	cfg      ServiceConfig
}

var _ interfaces.CatalystFetcher = (*Service)(nil)

// NewService creates a catalyst service around the given analyzer.
func NewService(analyzer Analyzer, cfg ServiceConfig) *Service {
	d := DefaultServiceConfig()
	if cfg.MaxHeadlines <= 0 {
		cfg.MaxHeadlines = d.MaxHeadlines
	}
	if cfg.CacheDuration <= 0 {
		cfg.CacheDuration = d.CacheDuration
	}
	if cfg.ScraperTimeout <= 0 {
		cfg.ScraperTimeout = d.ScraperTimeout
	}
	return &Service{
		scraper:  NewScraper(cfg.ScraperTimeout),
		analyzer: analyzer,
		cache:    newAssessmentCache(cfg.CacheDuration),
		cfg:      cfg,
	}
}

// Assess returns the catalyst assessment for symbol, serving from cache
// when fresh.
func (s *Service) Assess(ctx context.Context, symbol string, changePercent *float64) (*types.CatalystAssessment, error) {
	if cached, ok := s.cache.get(symbol); ok {
		logger.Debug(ctx, "Catalyst served from cache", "symbol", symbol)
		return cached, nil
	}

	headlines, err := s.scraper.ScrapeHeadlines(ctx, symbol, s.cfg.MaxHeadlines)
	if err != nil {
		return nil, err
	}

	assessment, err := s.analyzer.Classify(ctx, symbol, headlines, changePercent)
	if err != nil {
		return nil, err
	}

	s.cache.set(symbol, assessment)
	return assessment, nil
}

// assessmentCache stores recent assessments per symbol.
type assessmentCache struct {
	mu   sync.RWMutex
	data map[string]*cacheEntry
	ttl  time.Duration
}

type cacheEntry struct {
	assessment *types.CatalystAssessment
	timestamp  time.Time
}

func newAssessmentCache(ttl time.Duration) *assessmentCache {
	return &assessmentCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
	}
}

func (c *assessmentCache) get(symbol string) (*types.CatalystAssessment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[symbol]
	if !exists || time.Since(entry.timestamp) > c.ttl {
		return nil, false
	}
	return entry.assessment, true
}

func (c *assessmentCache) set(symbol string, assessment *types.CatalystAssessment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Opportunistic cleanup keeps the map from growing across long sessions.
	now := time.Now()
	for sym, entry := range c.data {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.data, sym)
		}
	}
	c.data[symbol] = &cacheEntry{assessment: assessment, timestamp: now}
}
