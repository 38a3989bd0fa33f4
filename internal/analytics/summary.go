package analytics

import (
	"context"
	"fmt"

	"github.com/dvloznov/ledger-analyzer/internal/domain"
)

// Summary aggregates one document's records by category.
type Summary struct {
	DocumentID       string   `json:"document_id"`
	TotalRevenue     float64  `json:"total_revenue"`
	TotalExpenses    float64  `json:"total_expenses"`
	TotalAssets      float64  `json:"total_assets"`
	TotalLiabilities float64  `json:"total_liabilities"`
	TotalEquity      float64  `json:"total_equity"`
	NetIncome        float64  `json:"net_income"`
	RecordCount      int      `json:"record_count"`
	Highlights       []string `json:"highlights,omitempty"`
}

// Totals carries the five category sums. The ratio calculators take it so
// they can be driven from a Summary or built directly in tests.
type Totals struct {
	Revenue     float64
	Expenses    float64
	Assets      float64
	Liabilities float64
	Equity      float64
}

func (s *Summary) totals() Totals {
	return Totals{
		Revenue:     s.TotalRevenue,
		Expenses:    s.TotalExpenses,
		Assets:      s.TotalAssets,
		Liabilities: s.TotalLiabilities,
		Equity:      s.TotalEquity,
	}
}

// Summarize computes the category totals for one document. A document with
// zero persisted records is an ErrInsufficientData condition, not an empty
// summary.
func (e *Engine) Summarize(ctx context.Context, docID string) (*Summary, error) {
	records, err := e.repo.GetDocumentRecords(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("Summarize: loading records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("Summarize: document %s: %w", docID, domain.ErrInsufficientData)
	}

	s := &Summary{DocumentID: docID, RecordCount: len(records)}
	for _, rec := range records {
		switch {
		case domain.SameCategory(rec.Category, domain.CategoryRevenue):
			s.TotalRevenue += rec.Amount
		case domain.SameCategory(rec.Category, domain.CategoryExpense):
			s.TotalExpenses += rec.Amount
		case domain.SameCategory(rec.Category, domain.CategoryAsset):
			s.TotalAssets += rec.Amount
		case domain.SameCategory(rec.Category, domain.CategoryLiability):
			s.TotalLiabilities += rec.Amount
		case domain.SameCategory(rec.Category, domain.CategoryEquity):
			s.TotalEquity += rec.Amount
		}
	}
	s.NetIncome = s.TotalRevenue - s.TotalExpenses
	s.Highlights = buildHighlights(s)

	e.log.Debug().Str("document_id", docID).Int("records", s.RecordCount).Msg("summary computed")
	return s, nil
}

// buildHighlights derives human-readable callouts. Every division is behind
// a denominator guard.
func buildHighlights(s *Summary) []string {
	var out []string
	if s.TotalRevenue != 0 {
		out = append(out, fmt.Sprintf("Profit margin: %.1f%%", s.NetIncome/s.TotalRevenue*100))
		out = append(out, fmt.Sprintf("Expense ratio: %.1f%%", s.TotalExpenses/s.TotalRevenue*100))
	}
	if s.TotalEquity != 0 {
		out = append(out, fmt.Sprintf("Debt-to-equity: %.2f", s.TotalLiabilities/s.TotalEquity))
	}
	if s.NetIncome < 0 {
		out = append(out, fmt.Sprintf("Operating at a loss of %.2f", -s.NetIncome))
	}
	return out
}
