package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/dvloznov/ledger-analyzer/internal/domain"
)

// amountPattern finds dollar-ish figures in a text line. The last match on a
// line is taken as the amount; everything before it is the account label.
var amountPattern = regexp.MustCompile(`\$?([\d,]+\.?\d*)`)

// minLabelLen filters out line-number and code fragments masquerading as
// account names in extracted PDF text.
const minLabelLen = 4

// parsePDFText scans raw pdftotext output line by line and builds candidate
// records. Text layout carries no category or period information, so every
// record gets category Unknown and the current month as its period.
func parsePDFText(text string, now time.Time) []domain.Record {
	var records []domain.Record
	period := domain.CurrentPeriod(now)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		matches := amountPattern.FindAllStringSubmatchIndex(line, -1)
		if len(matches) == 0 {
			continue
		}
		last := matches[len(matches)-1]
		amount := domain.ParseAmount(line[last[2]:last[3]])
		if amount == 0 {
			continue
		}
		label := strings.Trim(strings.TrimSpace(line[:last[0]]), ".-_:\t ")
		if len(label) < minLabelLen {
			continue
		}
		records = append(records, domain.Record{
			AccountName: label,
			Amount:      amount,
			Category:    "Unknown",
			Period:      period,
			Currency:    "USD",
			RecordedAt:  now.UTC(),
		})
	}
	return records
}
