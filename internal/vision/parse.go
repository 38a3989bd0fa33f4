package vision

import (
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/ledger-analyzer/internal/domain"
)

// ParseLines converts one page's model response into records. Lines that do
// not fit the pipe-delimited format are dropped with a warning; the page
// number seeds the synthetic account code so vision records stay traceable
// to their page.
func ParseLines(response string, page int, now time.Time) ([]domain.Record, []string) {
	var records []domain.Record
	var warnings []string

	for _, line := range strings.Split(stripFences(response), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 3 {
			warnings = append(warnings, fmt.Sprintf("page %d: unparseable line %q", page, line))
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		name := fields[0]
		amount := domain.ParseAmount(fields[1])
		if name == "" || amount == 0 {
			warnings = append(warnings, fmt.Sprintf("page %d: discarded line %q", page, line))
			continue
		}

		category := fields[2]
		if canonical, ok := domain.CanonicalCategory(category); ok {
			category = string(canonical)
		}
		if category == "" {
			category = "Unknown"
		}

		period := ""
		if len(fields) > 3 {
			period = fields[3]
		}
		if period == "" {
			period = domain.CurrentPeriod(now)
		}

		records = append(records, domain.Record{
			AccountName: name,
			AccountCode: fmt.Sprintf("PAGE-%d", page),
			Amount:      amount,
			Category:    category,
			Period:      period,
			Currency:    "USD",
			RecordedAt:  now.UTC(),
		})
	}
	return records, warnings
}

// stripFences removes Markdown code fences when the model ignores the
// no-fences instruction.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
