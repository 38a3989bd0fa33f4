package domain

import (
	"strings"
	"time"
)

// Category is one of the five canonical ledger categories.
type Category string

const (
	CategoryRevenue   Category = "Revenue"
	CategoryExpense   Category = "Expense"
	CategoryAsset     Category = "Asset"
	CategoryLiability Category = "Liability"
	CategoryEquity    Category = "Equity"
)

var allCategories = []Category{
	CategoryRevenue,
	CategoryExpense,
	CategoryAsset,
	CategoryLiability,
	CategoryEquity,
}

// Categories returns the canonical category tags.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// CanonicalCategory matches input case-insensitively against the canonical
// tags, tolerating plural forms ("Expenses", "Assets"). The second return is
// false when the input matches nothing; extractors keep the raw string in
// that case rather than dropping the record.
func CanonicalCategory(input string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.TrimSuffix(normalized, "s")
	if normalized == "liabilitie" { // "liabilities" loses its plural differently
		normalized = "liability"
	}
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}
	return "", false
}

// SameCategory reports whether a record's category string names the given
// canonical category, case-insensitively.
func SameCategory(raw string, cat Category) bool {
	return strings.EqualFold(strings.TrimSpace(raw), string(cat))
}

// Record is one normalized financial line item. Records are created in
// batches by an extractor and are immutable once persisted.
type Record struct {
	DocumentID  string    `json:"document_id"`
	AccountName string    `json:"account_name"`
	AccountCode string    `json:"account_code,omitempty"`
	Period      string    `json:"period"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Valid reports whether the record satisfies the validity invariant: account
// name, period and category must all be non-empty. Invalid records are
// dropped during extraction and never persisted.
func (r *Record) Valid() bool {
	return strings.TrimSpace(r.AccountName) != "" &&
		strings.TrimSpace(r.Period) != "" &&
		strings.TrimSpace(r.Category) != ""
}
