package analytics

import (
	"context"
	"fmt"
)

// RatioSet groups the three ratio families for one document. A ratio whose
// denominator is zero is absent from its map, never NaN or Inf.
type RatioSet struct {
	DocumentID    string             `json:"document_id"`
	Profitability map[string]float64 `json:"profitability"`
	Liquidity     map[string]float64 `json:"liquidity"`
	Efficiency    map[string]float64 `json:"efficiency"`
}

// Ratios computes all ratio families for one document.
func (e *Engine) Ratios(ctx context.Context, docID string) (*RatioSet, error) {
	summary, err := e.Summarize(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("Ratios: %w", err)
	}
	t := summary.totals()
	return &RatioSet{
		DocumentID:    docID,
		Profitability: CalculateProfitabilityRatios(t),
		Liquidity:     CalculateLiquidityRatios(t),
		Efficiency:    CalculateEfficiencyRatios(t),
	}, nil
}

// CalculateProfitabilityRatios derives margin and return ratios.
func CalculateProfitabilityRatios(t Totals) map[string]float64 {
	out := make(map[string]float64)
	netIncome := t.Revenue - t.Expenses
	if t.Revenue != 0 {
		out["GrossProfitMargin"] = netIncome / t.Revenue * 100
		out["NetProfitMargin"] = netIncome / t.Revenue * 100
		out["OperatingProfitMargin"] = (t.Revenue - t.Expenses) / t.Revenue * 100
	}
	if t.Assets != 0 {
		out["ReturnOnAssets"] = netIncome / t.Assets * 100
	}
	if t.Equity != 0 {
		out["ReturnOnEquity"] = netIncome / t.Equity * 100
	}
	return out
}

// CalculateLiquidityRatios derives solvency ratios.
func CalculateLiquidityRatios(t Totals) map[string]float64 {
	out := make(map[string]float64)
	if t.Liabilities != 0 {
		out["CurrentRatio"] = t.Assets / t.Liabilities
		if t.Equity != 0 {
			out["DebtToEquity"] = t.Liabilities / t.Equity
		}
	}
	if t.Assets != 0 {
		out["DebtToAssets"] = t.Liabilities / t.Assets
		out["EquityRatio"] = t.Equity / t.Assets
	}
	return out
}

// CalculateEfficiencyRatios derives utilization ratios.
func CalculateEfficiencyRatios(t Totals) map[string]float64 {
	out := make(map[string]float64)
	if t.Assets != 0 {
		out["AssetTurnover"] = t.Revenue / t.Assets
	}
	if t.Revenue != 0 {
		out["OperatingExpenseRatio"] = t.Expenses / t.Revenue * 100
	}
	return out
}
