package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/dvloznov/ledger-analyzer/internal/domain"
)

// CategoryDelta is one category's movement between two periods.
type CategoryDelta struct {
	Category    string  `json:"category"`
	BaseTotal   float64 `json:"base_total"`
	TargetTotal float64 `json:"target_total"`
	Variance    float64 `json:"variance"`
	// ChangePct is nil when the base total is zero.
	ChangePct   *float64 `json:"change_pct,omitempty"`
	Significant bool     `json:"significant"`
}

// ComparisonResult is the outcome of comparing two periods or two documents.
type ComparisonResult struct {
	BasePeriod   string          `json:"base_period"`
	TargetPeriod string          `json:"target_period"`
	Deltas       []CategoryDelta `json:"deltas"`
	OverallTrend string          `json:"overall_trend"`
}

const (
	TrendGrowth  = "Growth"
	TrendDecline = "Decline"
	TrendStable  = "Stable"
)

// ComparePeriods computes per-category variance between two period labels.
func (e *Engine) ComparePeriods(ctx context.Context, basePeriod, targetPeriod string) (*ComparisonResult, error) {
	base, err := e.repo.GetRecordsByPeriod(ctx, basePeriod)
	if err != nil {
		return nil, fmt.Errorf("ComparePeriods: loading base period: %w", err)
	}
	target, err := e.repo.GetRecordsByPeriod(ctx, targetPeriod)
	if err != nil {
		return nil, fmt.Errorf("ComparePeriods: loading target period: %w", err)
	}
	if len(base) == 0 && len(target) == 0 {
		return nil, fmt.Errorf("ComparePeriods: no records in either period: %w", domain.ErrInsufficientData)
	}
	return e.compare(basePeriod, targetPeriod, base, target), nil
}

// CompareDocuments reduces each document to its dominant period (the period
// label carried by the most records) and compares those.
func (e *Engine) CompareDocuments(ctx context.Context, baseDocID, targetDocID string) (*ComparisonResult, error) {
	base, err := e.repo.GetDocumentRecords(ctx, baseDocID)
	if err != nil {
		return nil, fmt.Errorf("CompareDocuments: loading base document: %w", err)
	}
	target, err := e.repo.GetDocumentRecords(ctx, targetDocID)
	if err != nil {
		return nil, fmt.Errorf("CompareDocuments: loading target document: %w", err)
	}
	if len(base) == 0 || len(target) == 0 {
		return nil, fmt.Errorf("CompareDocuments: both documents need records: %w", domain.ErrInsufficientData)
	}
	result := e.compare(dominantPeriod(base), dominantPeriod(target), base, target)
	return result, nil
}

func (e *Engine) compare(basePeriod, targetPeriod string, base, target []domain.Record) *ComparisonResult {
	result := &ComparisonResult{BasePeriod: basePeriod, TargetPeriod: targetPeriod}

	baseTotal, targetTotal := 0.0, 0.0
	for _, cat := range domain.Categories() {
		b := sumCategory(base, cat)
		t := sumCategory(target, cat)
		baseTotal += b
		targetTotal += t
		if b == 0 && t == 0 {
			continue
		}
		delta := CategoryDelta{
			Category:    string(cat),
			BaseTotal:   b,
			TargetTotal: t,
			Variance:    t - b,
		}
		if b != 0 {
			pct := (t - b) / b * 100
			delta.ChangePct = &pct
			delta.Significant = math.Abs(pct) > e.cfg.SignificanceThresholdPct
		}
		result.Deltas = append(result.Deltas, delta)
	}

	switch {
	case targetTotal > baseTotal:
		result.OverallTrend = TrendGrowth
	case targetTotal < baseTotal:
		result.OverallTrend = TrendDecline
	default:
		result.OverallTrend = TrendStable
	}
	return result
}

func sumCategory(records []domain.Record, cat domain.Category) float64 {
	total := 0.0
	for _, rec := range records {
		if domain.SameCategory(rec.Category, cat) {
			total += rec.Amount
		}
	}
	return total
}

func dominantPeriod(records []domain.Record) string {
	counts := make(map[string]int)
	best, bestCount := "", 0
	for _, rec := range records {
		counts[rec.Period]++
		if counts[rec.Period] > bestCount {
			best, bestCount = rec.Period, counts[rec.Period]
		}
	}
	return best
}
