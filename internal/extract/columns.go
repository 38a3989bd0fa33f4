package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/ledger-analyzer/internal/domain"
)

// Field names a canonical Record attribute that a source column can bind to.
type Field int

const (
	FieldAccountName Field = iota
	FieldAccountCode
	FieldPeriod
	FieldAmount
	FieldCategory
	FieldSubcategory
	FieldCurrency
	FieldDate
)

// columnAlias matches a header cell when every substring in all is present
// and none of the substrings in none are. Matching is case-insensitive.
type columnAlias struct {
	all  []string
	none []string
}

// fieldAliases is the declarative alias table shared by the spreadsheet and
// delimited-text extractors. Order matters: more specific fields (code,
// subcategory) are checked before the fields whose aliases they contain.
var fieldAliases = []struct {
	field   Field
	aliases []columnAlias
}{
	{FieldAccountCode, []columnAlias{
		{all: []string{"account", "code"}},
		{all: []string{"acct", "code"}},
	}},
	{FieldAccountName, []columnAlias{
		{all: []string{"account", "name"}},
		{all: []string{"account"}, none: []string{"code"}},
	}},
	{FieldSubcategory, []columnAlias{
		{all: []string{"subcategory"}},
		{all: []string{"sub category"}},
		{all: []string{"sub-category"}},
	}},
	{FieldCategory, []columnAlias{
		{all: []string{"category"}, none: []string{"sub"}},
	}},
	{FieldPeriod, []columnAlias{
		{all: []string{"period"}},
		{all: []string{"quarter"}},
		{all: []string{"month"}},
	}},
	{FieldAmount, []columnAlias{
		{all: []string{"amount"}},
		{all: []string{"value"}},
	}},
	{FieldCurrency, []columnAlias{
		{all: []string{"currency"}},
	}},
	{FieldDate, []columnAlias{
		{all: []string{"date"}},
	}},
}

func (a columnAlias) matches(header string) bool {
	for _, sub := range a.all {
		if !strings.Contains(header, sub) {
			return false
		}
	}
	for _, sub := range a.none {
		if strings.Contains(header, sub) {
			return false
		}
	}
	return true
}

// MapColumns binds header cells to canonical fields. The first column that
// matches a field wins; later columns with the same meaning are ignored.
func MapColumns(headers []string) map[Field]int {
	cols := make(map[Field]int)
	for idx, raw := range headers {
		header := strings.ToLower(strings.TrimSpace(raw))
		if header == "" {
			continue
		}
		for _, fa := range fieldAliases {
			if _, taken := cols[fa.field]; taken {
				continue
			}
			for _, alias := range fa.aliases {
				if alias.matches(header) {
					cols[fa.field] = idx
					break
				}
			}
			if _, bound := cols[fa.field]; bound {
				break
			}
		}
	}
	return cols
}

// headerKeywords drive header-row detection: a row qualifies when at least
// minHeaderMatches of these appear as substrings across its cells.
var headerKeywords = []string{"account", "amount", "period", "category"}

const minHeaderMatches = 2

// IsHeaderRow reports whether a row looks like the header row.
func IsHeaderRow(cells []string) bool {
	joined := strings.ToLower(strings.Join(cells, " "))
	matches := 0
	for _, kw := range headerKeywords {
		if strings.Contains(joined, kw) {
			matches++
		}
	}
	return matches >= minHeaderMatches
}

func cellAt(cells []string, cols map[Field]int, f Field) string {
	idx, ok := cols[f]
	if !ok || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

// buildRecord assembles a candidate Record from one data row. The second
// return is a non-empty skip reason when the row fails the validity
// invariant; amount and date problems never skip a row.
func buildRecord(cells []string, cols map[Field]int, now time.Time) (domain.Record, string) {
	rec := domain.Record{
		AccountName: cellAt(cells, cols, FieldAccountName),
		AccountCode: cellAt(cells, cols, FieldAccountCode),
		Period:      cellAt(cells, cols, FieldPeriod),
		Amount:      domain.ParseAmount(cellAt(cells, cols, FieldAmount)),
		Currency:    cellAt(cells, cols, FieldCurrency),
		Subcategory: cellAt(cells, cols, FieldSubcategory),
		RecordedAt:  domain.ParseDateLenient(cellAt(cells, cols, FieldDate), now),
	}
	if rec.Currency == "" {
		rec.Currency = "USD"
	}

	rawCategory := cellAt(cells, cols, FieldCategory)
	if canonical, ok := domain.CanonicalCategory(rawCategory); ok {
		rec.Category = string(canonical)
	} else {
		rec.Category = rawCategory
	}

	if !rec.Valid() {
		var missing []string
		if rec.AccountName == "" {
			missing = append(missing, "account name")
		}
		if rec.Period == "" {
			missing = append(missing, "period")
		}
		if rec.Category == "" {
			missing = append(missing, "category")
		}
		return rec, fmt.Sprintf("missing %s", strings.Join(missing, ", "))
	}
	return rec, ""
}

func rowEmpty(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
