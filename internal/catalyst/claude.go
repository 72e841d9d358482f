package catalyst

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"shortscan/internal/logger"
	"shortscan/internal/types"
)

// ClaudeConfig configures the LLM analyzer.
type ClaudeConfig struct {
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// ClaudeAnalyzer classifies catalysts with the Anthropic Claude API. The
// model sees the headlines plus the day change and must answer in strict
// JSON; unparseable answers fall back to the keyword heuristic.
type ClaudeAnalyzer struct {
	cfg      ClaudeConfig
	endpoint string
	fallback *HeuristicAnalyzer
}

var _ Analyzer = (*ClaudeAnalyzer)(nil)

// NewClaudeAnalyzer creates an LLM-backed analyzer. The endpoint can be
// overridden with CLAUDE_API_ENDPOINT for proxies.
func NewClaudeAnalyzer(cfg ClaudeConfig) *ClaudeAnalyzer {
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}
	endpoint := "https://api.anthropic.com/v1/messages"
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &ClaudeAnalyzer{
		cfg:      cfg,
		endpoint: endpoint,
		fallback: NewHeuristicAnalyzer(),
	}
}

const classifierSystem = `You classify the news catalyst behind a stock's large one-day gain.
Answer ONLY with compact JSON:
{"classification":"EARNINGS|FDA|MA|UPGRADE|CONTRACT|PRODUCT_LAUNCH|SPECULATIVE|MEME_SOCIAL|UNKNOWN","has_fundamental_catalyst":true|false,"summary":"one sentence","confidence":"LOW|MEDIUM|HIGH"}
A catalyst is fundamental when it plausibly justifies a durable repricing (earnings, FDA decisions, M&A, signed contracts).`

// Classify asks Claude to label the catalyst. API or parse failures degrade
// to the heuristic classifier rather than erroring.
func (a *ClaudeAnalyzer) Classify(ctx context.Context, symbol string, headlines []Headline, changePercent *float64) (*types.CatalystAssessment, error) {
	ctx, span := logger.StartSpan(ctx, "catalyst.claude")
	defer span.End()

	apiKey := os.Getenv("CLAUDE_API_KEY")
	if apiKey == "" {
		return nil, errors.New("CLAUDE_API_KEY missing")
	}
	if len(headlines) == 0 {
		return a.fallback.Classify(ctx, symbol, headlines, changePercent)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Symbol: %s\n", symbol)
	if changePercent != nil {
		fmt.Fprintf(&sb, "Day change: %+.1f%%\n", *changePercent)
	}
	sb.WriteString("Headlines:\n")
	for i, h := range headlines {
		if i >= 15 {
			break
		}
		fmt.Fprintf(&sb, "- [%s] %s", h.Source, h.Title)
		if h.Snippet != "" {
			fmt.Fprintf(&sb, " (%s)", h.Snippet)
		}
		sb.WriteString("\n")
	}

	reqBody := map[string]any{
		"model":      a.cfg.Model,
		"max_tokens": a.cfg.MaxTokens,
		"system":     classifierSystem,
		"messages": []map[string]string{
			{"role": "user", "content": sb.String()},
		},
		"temperature": a.cfg.Temperature,
	}

	bb, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(bb))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.Warn(ctx, "Claude call failed, using heuristic fallback", "symbol", symbol, "error", err.Error())
		return a.fallback.Classify(ctx, symbol, headlines, changePercent)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		logger.Warn(ctx, "Claude non-2xx, using heuristic fallback",
			"symbol", symbol, "status", resp.StatusCode, "body", string(body))
		return a.fallback.Classify(ctx, symbol, headlines, changePercent)
	}

	respBytes, _ := io.ReadAll(resp.Body)
	text := extractMessageText(respBytes)
	assessment, err := parseAssessment(text)
	if err != nil {
		logger.Warn(ctx, "Unparseable Claude answer, using heuristic fallback", "symbol", symbol, "error", err.Error())
		return a.fallback.Classify(ctx, symbol, headlines, changePercent)
	}
	return assessment, nil
}

// extractMessageText pulls the assistant text out of a messages API
// response body.
func extractMessageText(body []byte) string {
	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return string(body)
	}
	var sb strings.Builder
	for _, c := range resp.Content {
		if c.Type == "" || c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return string(body)
	}
	return sb.String()
}

// parseAssessment decodes the strict JSON answer, tolerating surrounding
// prose by slicing out the first JSON object.
func parseAssessment(text string) (*types.CatalystAssessment, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in answer")
	}

	var raw struct {
		Classification         string `json:"classification"`
		HasFundamentalCatalyst bool   `json:"has_fundamental_catalyst"`
		Summary                string `json:"summary"`
		Confidence             string `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, err
	}

	classification := types.CatalystClassification(strings.ToUpper(strings.TrimSpace(raw.Classification)))
	switch classification {
	case types.CatalystEarnings, types.CatalystFDA, types.CatalystMA, types.CatalystUpgrade,
		types.CatalystContract, types.CatalystProductLaunch, types.CatalystSpeculative,
		types.CatalystMemeSocial, types.CatalystUnknown:
	default:
		return nil, fmt.Errorf("unknown classification %q", raw.Classification)
	}

	confidence := types.Confidence(strings.ToUpper(strings.TrimSpace(raw.Confidence)))
	switch confidence {
	case types.ConfidenceLow, types.ConfidenceMedium, types.ConfidenceHigh:
	default:
		confidence = types.ConfidenceLow
	}

	return &types.CatalystAssessment{
		// Trust the model's flag only when it agrees with the category; a
		// SPECULATIVE catalyst marked fundamental is a contradiction.
		HasFundamentalCatalyst: raw.HasFundamentalCatalyst && classification.IsFundamental(),
		Classification:         classification,
		Summary:                strings.TrimSpace(raw.Summary),
		Confidence:             confidence,
	}, nil
}
