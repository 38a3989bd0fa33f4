package analytics

import "testing"

func TestLiquidityRatioGuards(t *testing.T) {
	t.Run("zero liabilities omit CurrentRatio and DebtToEquity", func(t *testing.T) {
		out := CalculateLiquidityRatios(Totals{Assets: 1000, Equity: 500})
		if _, ok := out["CurrentRatio"]; ok {
			t.Error("CurrentRatio must be omitted when liabilities are zero")
		}
		if _, ok := out["DebtToEquity"]; ok {
			t.Error("DebtToEquity must be omitted when liabilities are zero")
		}
		if out["DebtToAssets"] != 0 {
			t.Errorf("DebtToAssets = %v, want 0", out["DebtToAssets"])
		}
		if out["EquityRatio"] != 0.5 {
			t.Errorf("EquityRatio = %v, want 0.5", out["EquityRatio"])
		}
	})

	t.Run("all denominators present", func(t *testing.T) {
		out := CalculateLiquidityRatios(Totals{Assets: 1000, Liabilities: 400, Equity: 600})
		if out["CurrentRatio"] != 2.5 {
			t.Errorf("CurrentRatio = %v, want 2.5", out["CurrentRatio"])
		}
		if got := out["DebtToEquity"]; got < 0.666 || got > 0.667 {
			t.Errorf("DebtToEquity = %v, want ~0.667", got)
		}
	})

	t.Run("zero assets omit asset-based ratios", func(t *testing.T) {
		out := CalculateLiquidityRatios(Totals{Liabilities: 400, Equity: 600})
		if _, ok := out["DebtToAssets"]; ok {
			t.Error("DebtToAssets must be omitted when assets are zero")
		}
		if _, ok := out["EquityRatio"]; ok {
			t.Error("EquityRatio must be omitted when assets are zero")
		}
	})
}

func TestProfitabilityRatioGuards(t *testing.T) {
	out := CalculateProfitabilityRatios(Totals{Assets: 0, Equity: 0, Revenue: 0, Expenses: 100})
	if len(out) != 0 {
		t.Errorf("all profitability ratios need non-zero denominators, got %v", out)
	}

	out = CalculateProfitabilityRatios(Totals{Revenue: 200, Expenses: 100, Assets: 1000, Equity: 500})
	if out["NetProfitMargin"] != 50 {
		t.Errorf("NetProfitMargin = %v, want 50", out["NetProfitMargin"])
	}
	if out["ReturnOnAssets"] != 10 {
		t.Errorf("ReturnOnAssets = %v, want 10", out["ReturnOnAssets"])
	}
	if out["ReturnOnEquity"] != 20 {
		t.Errorf("ReturnOnEquity = %v, want 20", out["ReturnOnEquity"])
	}
}

func TestEfficiencyRatioGuards(t *testing.T) {
	out := CalculateEfficiencyRatios(Totals{Revenue: 500, Expenses: 100, Assets: 1000})
	if out["AssetTurnover"] != 0.5 {
		t.Errorf("AssetTurnover = %v, want 0.5", out["AssetTurnover"])
	}
	if out["OperatingExpenseRatio"] != 20 {
		t.Errorf("OperatingExpenseRatio = %v, want 20", out["OperatingExpenseRatio"])
	}

	out = CalculateEfficiencyRatios(Totals{})
	if len(out) != 0 {
		t.Errorf("zero denominators must omit all efficiency ratios, got %v", out)
	}
}
