package scoring

import (
	"fmt"

	"shortscan/internal/types"
)

// Select maps a scored candidate to a trade expression plus human-readable
// warnings. Rules are checked in order and the first match wins:
//
//  1. confirmed fundamental catalyst -> AVOID
//  2. score below 4.0 -> AVOID
//  3. EXTREME_VOLATILITY flagged -> PUT_SPREADS (defined max loss)
//  4. HIGH_SQUEEZE flagged with score >= 6.0 -> BUY_PUTS (no borrow risk)
//  5. otherwise -> SHORT_SHARES
//
// Every input maps to exactly one expression.
func Select(score float64, flags []types.RiskFlag, catalyst *types.CatalystAssessment) (types.TradeExpression, []string) {
	warnings := []string{}

	if catalyst != nil && catalyst.HasFundamentalCatalyst {
		warnings = append(warnings, fmt.Sprintf(
			"confirmed fundamental catalyst (%s): the move may be justified, do not short", catalyst.Classification))
		return types.ExpressionAvoid, warnings
	}

	if score < 4.0 {
		warnings = append(warnings, fmt.Sprintf("composite score %.1f below actionable threshold", score))
		return types.ExpressionAvoid, warnings
	}

	if types.HasFlag(flags, types.FlagExtremeVolatility) {
		warnings = append(warnings, "extreme volatility: use defined-risk put spreads, shares and naked puts can gap against you")
		return types.ExpressionPutSpreads, warnings
	}

	if types.HasFlag(flags, types.FlagHighSqueeze) && score >= 6.0 {
		warnings = append(warnings, "squeeze risk: buy puts instead of shorting shares, borrow can be pulled")
		return types.ExpressionBuyPuts, warnings
	}

	if types.HasFlag(flags, types.FlagHighSqueeze) {
		warnings = append(warnings, "squeeze risk on a middling setup, size small")
	}
	if types.HasFlag(flags, types.FlagLowLiquidity) {
		warnings = append(warnings, "thin average volume, expect wide spreads and slippage")
	}
	return types.ExpressionShortShares, warnings
}
