package analytics

import (
	"fmt"

	"github.com/dvloznov/ledger-analyzer/internal/domain"
)

// ForecastPoint is one projected period.
type ForecastPoint struct {
	PeriodsAhead int     `json:"periods_ahead"`
	Value        float64 `json:"value"`
	LowerBound   float64 `json:"lower_bound"`
	UpperBound   float64 `json:"upper_bound"`
}

// ForecastResult is a linear projection of a historical series.
type ForecastResult struct {
	History    []float64       `json:"history"`
	Points     []ForecastPoint `json:"points"`
	Slope      float64         `json:"slope"`
	Intercept  float64         `json:"intercept"`
	Confidence string          `json:"confidence"`
}

// band widths and confidence labels are fixed by contract, not derived from
// residual variance. Category forecasts are tighter because a single
// category's series is less noisy than a whole-ledger aggregate.
const (
	categoryBandPct = 0.10
	genericBandPct  = 0.15

	categoryConfidence = "70%"
	genericConfidence  = "65%"
)

// ForecastCategory projects a single category's historical series.
func (e *Engine) ForecastCategory(history []float64, periodsAhead int) (*ForecastResult, error) {
	return e.forecast(history, periodsAhead, categoryBandPct, categoryConfidence)
}

// Forecast projects a generic aggregate series with wider bands.
func (e *Engine) Forecast(history []float64, periodsAhead int) (*ForecastResult, error) {
	return e.forecast(history, periodsAhead, genericBandPct, genericConfidence)
}

func (e *Engine) forecast(history []float64, periodsAhead int, bandPct float64, confidence string) (*ForecastResult, error) {
	if len(history) < e.cfg.MinForecastPoints {
		return nil, fmt.Errorf("forecast: need at least %d historical points, got %d: %w",
			e.cfg.MinForecastPoints, len(history), domain.ErrInsufficientData)
	}
	if periodsAhead < 1 {
		periodsAhead = 1
	}

	slope, intercept := leastSquares(history)
	result := &ForecastResult{
		History:    history,
		Slope:      slope,
		Intercept:  intercept,
		Confidence: confidence,
	}
	for i := 1; i <= periodsAhead; i++ {
		x := float64(len(history) - 1 + i)
		value := slope*x + intercept
		// Negative projections are meaningless for ledger magnitudes.
		if value < 0 {
			value = 0
		}
		lower := value * (1 - bandPct)
		if lower < 0 {
			lower = 0
		}
		result.Points = append(result.Points, ForecastPoint{
			PeriodsAhead: i,
			Value:        value,
			LowerBound:   lower,
			UpperBound:   value * (1 + bandPct),
		})
	}
	return result, nil
}

// leastSquares fits y = slope*x + intercept over x = 0..n-1.
func leastSquares(y []float64) (slope, intercept float64) {
	n := float64(len(y))
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}
