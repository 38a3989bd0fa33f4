package vision

import (
	"strings"
	"testing"
	"time"
)

var parseNow = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestParseLines(t *testing.T) {
	response := strings.Join([]string{
		"Product Sales | 1500.50 | Revenue | 2024-03",
		"Office Rent | -1200 | Expense | Q1 2024",
		"Equipment | 5000 | assets |",
	}, "\n")

	records, warnings := ParseLines(response, 2, parseNow)
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	first := records[0]
	if first.AccountName != "Product Sales" || first.Amount != 1500.50 {
		t.Errorf("unexpected first record: %+v", first)
	}
	if first.AccountCode != "PAGE-2" {
		t.Errorf("AccountCode = %q, want PAGE-2", first.AccountCode)
	}
	if records[1].Amount != -1200 {
		t.Errorf("negative amount lost: %v", records[1].Amount)
	}
	if records[2].Category != "Asset" {
		t.Errorf("category not canonicalized: %q", records[2].Category)
	}
	if records[2].Period != "2024-03" {
		t.Errorf("blank period should default to current month, got %q", records[2].Period)
	}
}

func TestParseLinesMalformed(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		wantRecords int
		wantWarns   int
	}{
		{"empty response", "", 0, 0},
		{"too few fields", "Sales | 100", 0, 1},
		{"no pipes at all", "The page contains a balance sheet.", 0, 1},
		{"empty name", " | 100 | Revenue | 2024-03", 0, 1},
		{"zero amount", "Sales | abc | Revenue | 2024-03", 0, 1},
		{"blank lines ignored", "\n\n\n", 0, 0},
		{"mixed good and bad", "Sales | 100 | Revenue | 2024-03\ngarbage line\n", 1, 1},
		{"unknown category kept as-is", "Sales | 100 | Misc | 2024-03", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, warnings := ParseLines(tt.response, 1, parseNow)
			if len(records) != tt.wantRecords {
				t.Errorf("got %d records, want %d", len(records), tt.wantRecords)
			}
			if len(warnings) != tt.wantWarns {
				t.Errorf("got %d warnings, want %d: %v", len(warnings), tt.wantWarns, warnings)
			}
			for _, rec := range records {
				if !rec.Valid() {
					t.Errorf("parser returned invalid record: %+v", rec)
				}
			}
		})
	}
}

func TestParseLinesStripsFences(t *testing.T) {
	response := "```\nSales | 100 | Revenue | 2024-03\n```"
	records, _ := ParseLines(response, 1, parseNow)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	response = "```text\nSales | 100 | Revenue | 2024-03\n```"
	records, _ = ParseLines(response, 1, parseNow)
	if len(records) != 1 {
		t.Fatalf("fenced-with-language response: got %d records, want 1", len(records))
	}
}
