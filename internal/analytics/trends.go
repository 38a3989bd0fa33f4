package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/dvloznov/ledger-analyzer/internal/domain"
)

// TrendPoint is one period's aggregate in a trend series.
type TrendPoint struct {
	Period string  `json:"period"`
	Total  float64 `json:"total"`
	// ChangePct is the period-over-period percentage change; nil for the
	// first point and after a zero-valued previous period.
	ChangePct *float64 `json:"change_pct,omitempty"`
}

// TrendSeries is the result of trend analysis over an ordered period list.
type TrendSeries struct {
	Category         string       `json:"category,omitempty"`
	Points           []TrendPoint `json:"points"`
	Direction        string       `json:"direction"`
	PercentageChange float64      `json:"percentage_change"`
	Volatile         bool         `json:"volatile"`
	Insights         []string     `json:"insights,omitempty"`
}

const (
	DirectionIncreasing = "Increasing"
	DirectionDecreasing = "Decreasing"
	DirectionStable     = "Stable"
)

// AnalyzeTrendsByPeriod sums records per period (optionally restricted to a
// category), computes guarded period-over-period changes, and classifies the
// overall direction. At least two periods are required.
func (e *Engine) AnalyzeTrendsByPeriod(ctx context.Context, periods []string, category string) (*TrendSeries, error) {
	if len(periods) < 2 {
		return nil, fmt.Errorf("AnalyzeTrendsByPeriod: need at least 2 periods: %w", domain.ErrInsufficientData)
	}

	series := &TrendSeries{Category: category}
	for _, period := range periods {
		records, err := e.repo.GetRecordsByPeriod(ctx, period)
		if err != nil {
			return nil, fmt.Errorf("AnalyzeTrendsByPeriod: loading period %s: %w", period, err)
		}
		total := 0.0
		for _, rec := range records {
			if category != "" && !domain.SameCategory(rec.Category, domain.Category(category)) {
				continue
			}
			total += rec.Amount
		}
		series.Points = append(series.Points, TrendPoint{Period: period, Total: total})
	}

	classify(series, e.cfg.TrendThresholdPct, e.cfg.VolatilityThresholdPct)
	e.log.Debug().
		Str("category", category).
		Str("direction", series.Direction).
		Float64("pct_change", series.PercentageChange).
		Msg("trend analysis complete")
	return series, nil
}

// classify fills in change percentages, direction, volatility and insights.
func classify(series *TrendSeries, trendPct, volatilePct float64) {
	var changes []float64
	for i := 1; i < len(series.Points); i++ {
		prev := series.Points[i-1].Total
		if prev == 0 {
			continue
		}
		pct := (series.Points[i].Total - prev) / prev * 100
		series.Points[i].ChangePct = &pct
		changes = append(changes, pct)
	}

	first := series.Points[0].Total
	last := series.Points[len(series.Points)-1].Total
	if first != 0 {
		series.PercentageChange = (last - first) / first * 100
	}

	avg := 0.0
	meanAbs := 0.0
	for _, c := range changes {
		avg += c
		meanAbs += math.Abs(c)
	}
	if len(changes) > 0 {
		avg /= float64(len(changes))
		meanAbs /= float64(len(changes))
	}

	switch {
	case avg > trendPct:
		series.Direction = DirectionIncreasing
	case avg < -trendPct:
		series.Direction = DirectionDecreasing
	default:
		series.Direction = DirectionStable
	}
	series.Volatile = meanAbs > volatilePct

	label := "values"
	if series.Category != "" {
		label = series.Category
	}
	switch series.Direction {
	case DirectionIncreasing:
		series.Insights = append(series.Insights,
			fmt.Sprintf("%s grew %.1f%% over %d periods", label, series.PercentageChange, len(series.Points)))
	case DirectionDecreasing:
		series.Insights = append(series.Insights,
			fmt.Sprintf("%s fell %.1f%% over %d periods", label, -series.PercentageChange, len(series.Points)))
	default:
		series.Insights = append(series.Insights,
			fmt.Sprintf("%s held stable over %d periods", label, len(series.Points)))
	}
	if series.Volatile {
		series.Insights = append(series.Insights,
			fmt.Sprintf("high volatility: mean period-over-period change %.1f%%", meanAbs))
	}
}
