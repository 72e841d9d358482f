package catalyst

import (
	"context"
	"fmt"
	"strings"

	"shortscan/internal/types"
)

// Analyzer classifies a set of headlines into a catalyst assessment.
type Analyzer interface {
	Classify(ctx context.Context, symbol string, headlines []Headline, changePercent *float64) (*types.CatalystAssessment, error)
}

// keywordRules map headline phrases to classifications, checked in order.
// Fundamental categories come first so an earnings headline with the word
// "launch" in it still lands on EARNINGS.
var keywordRules = []struct {
	classification types.CatalystClassification
	keywords       []string
}{
	{types.CatalystEarnings, []string{"earnings", "revenue", "eps", "beat estimates", "quarterly results", "guidance", "profit"}},
	{types.CatalystFDA, []string{"fda", "approval", "clinical", "phase 1", "phase 2", "phase 3", "trial results", "breakthrough therapy"}},
	{types.CatalystMA, []string{"merger", "acquisition", "acquire", "buyout", "takeover", "tender offer"}},
	{types.CatalystContract, []string{"contract", "awarded", "purchase order", "government deal", "partnership agreement"}},
	{types.CatalystUpgrade, []string{"upgrade", "price target", "initiated coverage", "overweight", "outperform"}},
	{types.CatalystProductLaunch, []string{"launch", "unveil", "new product", "release date"}},
	{types.CatalystMemeSocial, []string{"reddit", "wallstreetbets", "meme stock", "short squeeze", "retail frenzy", "social media buzz"}},
}

// HeuristicAnalyzer is the keyword fallback classifier. No network, no
// model, deterministic.
type HeuristicAnalyzer struct{}

var _ Analyzer = (*HeuristicAnalyzer)(nil)

// NewHeuristicAnalyzer creates a keyword-based analyzer.
func NewHeuristicAnalyzer() *HeuristicAnalyzer {
	return &HeuristicAnalyzer{}
}

// Classify scans headline text for known catalyst phrases. With no
// headlines the catalyst is UNKNOWN; headlines that match nothing are
// treated as SPECULATIVE since a big move with only vague coverage usually
// has no durable driver.
func (a *HeuristicAnalyzer) Classify(ctx context.Context, symbol string, headlines []Headline, changePercent *float64) (*types.CatalystAssessment, error) {
	if len(headlines) == 0 {
		return &types.CatalystAssessment{
			Classification: types.CatalystUnknown,
			Summary:        "no recent headlines found",
			Confidence:     types.ConfidenceLow,
		}, nil
	}

	counts := map[types.CatalystClassification]int{}
	var firstMatch string
	for _, h := range headlines {
		text := strings.ToLower(h.Title + " " + h.Snippet)
		for _, rule := range keywordRules {
			if containsAny(text, rule.keywords) {
				counts[rule.classification]++
				if firstMatch == "" {
					firstMatch = h.Title
				}
				break
			}
		}
	}

	best := types.CatalystSpeculative
	bestCount := 0
	for _, rule := range keywordRules {
		if counts[rule.classification] > bestCount {
			best = rule.classification
			bestCount = counts[rule.classification]
		}
	}

	confidence := types.ConfidenceLow
	if bestCount >= 2 {
		confidence = types.ConfidenceMedium
	}

	summary := fmt.Sprintf("keyword match across %d of %d headlines", bestCount, len(headlines))
	if firstMatch != "" {
		summary = fmt.Sprintf("%s; e.g. %q", summary, firstMatch)
	}

	return &types.CatalystAssessment{
		HasFundamentalCatalyst: best.IsFundamental(),
		Classification:         best,
		Summary:                summary,
		Confidence:             confidence,
	}, nil
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
