package domain

import (
	"strconv"
	"strings"
	"time"
)

var currencySymbols = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "")

// ParseAmount converts a cell value to a signed amount, stripping currency
// symbols and thousands separators first. Unparseable input yields 0; a bad
// amount is a data-quality issue, not an extraction failure.
func ParseAmount(s string) float64 {
	cleaned := currencySymbols.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0
	}
	// Accounting negatives: (1234.56)
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = "-" + strings.Trim(cleaned, "()")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
	"2006/01/02",
	"02 Jan 2006",
	"Jan 2, 2006",
	"2006-01",
}

// ParseDateLenient tries a set of common layouts and falls back to now
// (UTC) when none match. Dates are advisory on a Record; a bad date never
// drops a row.
func ParseDateLenient(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.UTC()
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return now.UTC()
}

// CurrentPeriod returns the free-form period label for the current month,
// e.g. "2024-03". Extractors use it when a source carries no period column.
func CurrentPeriod(now time.Time) string {
	return now.UTC().Format("2006-01")
}
