package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/dvloznov/ledger-analyzer/internal/domain"
)

// Anomaly flags one record whose amount sits far from its category's norm.
type Anomaly struct {
	AccountName  string  `json:"account_name"`
	Category     string  `json:"category"`
	Amount       float64 `json:"amount"`
	Expected     float64 `json:"expected"`
	Deviation    float64 `json:"deviation"`
	DeviationPct float64 `json:"deviation_pct"`
	Severity     string  `json:"severity"`
	Reason       string  `json:"reason"`
}

const (
	SeverityLow    = "Low"
	SeverityMedium = "Medium"
	SeverityHigh   = "High"
)

// DetectAnomalies scans one document's records per category group. Each
// record is measured against the mean and population standard deviation of
// the OTHER records in its group; including the candidate itself would let a
// single extreme outlier inflate the deviation enough to hide itself.
// Groups smaller than the configured minimum are skipped entirely.
func (e *Engine) DetectAnomalies(ctx context.Context, docID string) ([]Anomaly, error) {
	records, err := e.repo.GetDocumentRecords(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("DetectAnomalies: loading records: %w", err)
	}

	groups := make(map[string][]domain.Record)
	for _, rec := range records {
		if canonical, ok := domain.CanonicalCategory(rec.Category); ok {
			groups[string(canonical)] = append(groups[string(canonical)], rec)
		}
	}

	var anomalies []Anomaly
	for category, group := range groups {
		if len(group) < e.cfg.MinAnomalyGroup {
			continue
		}
		for i, rec := range group {
			mean, stddev := excludedStats(group, i)
			if stddev == 0 {
				continue
			}
			dist := math.Abs(rec.Amount-mean) / stddev
			if dist <= e.cfg.AnomalySigma {
				continue
			}
			severity := SeverityLow
			switch {
			case dist > e.cfg.HighSigma:
				severity = SeverityHigh
			case dist > e.cfg.MediumSigma:
				severity = SeverityMedium
			}
			deviation := rec.Amount - mean
			pct := 0.0
			if mean != 0 {
				pct = deviation / mean * 100
			}
			anomalies = append(anomalies, Anomaly{
				AccountName:  rec.AccountName,
				Category:     category,
				Amount:       rec.Amount,
				Expected:     mean,
				Deviation:    deviation,
				DeviationPct: pct,
				Severity:     severity,
				Reason: fmt.Sprintf("%s amount %.2f is %.1f standard deviations from the %s group mean %.2f",
					rec.AccountName, rec.Amount, dist, category, mean),
			})
		}
	}

	e.log.Debug().Str("document_id", docID).Int("anomalies", len(anomalies)).Msg("anomaly scan complete")
	return anomalies, nil
}

// excludedStats computes the mean and population standard deviation of a
// group with the record at index skip left out.
func excludedStats(group []domain.Record, skip int) (mean, stddev float64) {
	n := len(group) - 1
	if n == 0 {
		return 0, 0
	}
	for i, rec := range group {
		if i == skip {
			continue
		}
		mean += rec.Amount
	}
	mean /= float64(n)

	var sumSq float64
	for i, rec := range group {
		if i == skip {
			continue
		}
		d := rec.Amount - mean
		sumSq += d * d
	}
	return mean, math.Sqrt(sumSq / float64(n))
}
